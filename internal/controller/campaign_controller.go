// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
	"github.com/superprospect/prospector-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Validate        *validator.Validate
}

func NewCampaignController(svc *service.CampaignService) *CampaignController {
	return &CampaignController{
		CampaignService: svc,
		Validate:        validator.New(),
	}
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID int    `json:"user_id" validate:"required,min=1"`
		Name   string `json:"name" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(body.UserID, body.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) ListCampaignProspects(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	prospects, err := c.CampaignService.ListCampaignProspects(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch prospects: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": prospects})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}
