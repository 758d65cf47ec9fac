// internal/handler/automation_handler.go
package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/superprospect/prospector-backend/internal/service"
)

// AutomationHandler exposes the machine-invoked cron surface.
type AutomationHandler struct {
	Processor  *service.ProcessorService
	CronSecret string
	Production bool
}

func NewAutomationHandler(processor *service.ProcessorService, cronSecret string, production bool) *AutomationHandler {
	return &AutomationHandler{
		Processor:  processor,
		CronSecret: cronSecret,
		Production: production,
	}
}

// ProcessQueue handles GET /api/automation/process-queue. The bearer check
// applies whenever a secret is configured, and is mandatory in production.
func (h *AutomationHandler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "unauthorized",
		})
		return
	}

	results, err := h.Processor.ProcessQueue(r.Context(), time.Now())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"results": results,
	})
}

func (h *AutomationHandler) authorized(r *http.Request) bool {
	if h.CronSecret == "" {
		// Open only outside production.
		return !h.Production
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.CronSecret)) == 1
}
