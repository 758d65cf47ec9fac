// internal/controller/account_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/superprospect/prospector-backend/internal/model"
	"github.com/superprospect/prospector-backend/internal/repository"
)

// AccountController serves per-user resources: SMTP configurations and quotas.
type AccountController struct {
	SmtpRepo  repository.SmtpRepositoryInterface
	QuotaRepo repository.QuotaRepositoryInterface
	Validate  *validator.Validate
}

func NewAccountController(smtpRepo repository.SmtpRepositoryInterface, quotaRepo repository.QuotaRepositoryInterface) *AccountController {
	return &AccountController{
		SmtpRepo:  smtpRepo,
		QuotaRepo: quotaRepo,
		Validate:  validator.New(),
	}
}

func (c *AccountController) CreateSmtpConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID    int    `json:"user_id" validate:"required,min=1"`
		Host      string `json:"smtp_host" validate:"required,hostname|ip"`
		Port      int    `json:"smtp_port" validate:"required,min=1,max=65535"`
		Username  string `json:"smtp_user" validate:"required"`
		Password  string `json:"smtp_password" validate:"required"`
		FromEmail string `json:"from_email" validate:"required,email"`
		FromName  string `json:"from_name" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := &model.SmtpConfiguration{
		UserID:    body.UserID,
		IsActive:  true,
		Host:      body.Host,
		Port:      body.Port,
		Username:  body.Username,
		Password:  body.Password,
		FromEmail: body.FromEmail,
		FromName:  body.FromName,
	}
	if err := c.SmtpRepo.Create(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (c *AccountController) ListSmtpConfigs(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	configs, err := c.SmtpRepo.ListByUser(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": configs})
}

func (c *AccountController) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	quota, err := c.QuotaRepo.Get(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if quota == nil {
		http.Error(w, "quota not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quota)
}
