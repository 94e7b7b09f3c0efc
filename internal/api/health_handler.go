package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/reportd/internal/api/shared"
)

// HealthHandler answers liveness checks.
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler creates a HealthHandler. A nil clock uses time.Now.
func NewHealthHandler(now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{now: now}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
	})
}
