// internal/controller/schedule_controller.go
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

type ScheduleController struct {
	ScheduleService *service.ScheduleService
	Validate        *validator.Validate
}

func NewScheduleController(svc *service.ScheduleService) *ScheduleController {
	return &ScheduleController{
		ScheduleService: svc,
		Validate:        validator.New(),
	}
}

// CreateSchedule handles POST /api/campaigns/{id}/schedule.
func (c *ScheduleController) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	campaignIDStr := chi.URLParam(r, "id")
	campaignID, err := strconv.Atoi(campaignIDStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var params service.CreateScheduleParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.Validate.Struct(params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := c.ScheduleService.CreateSchedule(campaignID, params)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeScheduleError(w, http.StatusNotFound, err)
			return
		}
		writeScheduleError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":              true,
		"schedule_id":          result.ScheduleID,
		"queued_count":         result.QueuedCount,
		"generation_triggered": result.GenerationTriggered,
		"generated_count":      result.GeneratedCount,
	})
}

func (c *ScheduleController) PauseSchedule(w http.ResponseWriter, r *http.Request) {
	c.updateStatus(w, r, c.ScheduleService.Pause)
}

func (c *ScheduleController) ResumeSchedule(w http.ResponseWriter, r *http.Request) {
	c.updateStatus(w, r, c.ScheduleService.Resume)
}

// CancelSchedule also reports how many queued items were dropped.
func (c *ScheduleController) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid schedule id", http.StatusBadRequest)
		return
	}

	deleted, err := c.ScheduleService.Cancel(id)
	if err != nil {
		var notFound *appErrors.ErrScheduleNotFound
		if errors.As(err, &notFound) {
			writeScheduleError(w, http.StatusNotFound, err)
			return
		}
		writeScheduleError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"deleted_items": deleted,
	})
}

func (c *ScheduleController) updateStatus(w http.ResponseWriter, r *http.Request, fn func(int) error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid schedule id", http.StatusBadRequest)
		return
	}

	if err := fn(id); err != nil {
		var notFound *appErrors.ErrScheduleNotFound
		if errors.As(err, &notFound) {
			writeScheduleError(w, http.StatusNotFound, err)
			return
		}
		writeScheduleError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

func writeScheduleError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}
