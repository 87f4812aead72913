package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/api/response"
	"github.com/passforge/passforge/internal/store"
)

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	st      *store.Store
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(st *store.Store, version string) *HealthHandler {
	return &HealthHandler{st: st, version: version}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request. The service reports
// degraded when the database does not answer a ping.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	connected := true
	if err := h.st.Ping(ctx); err != nil {
		status = "degraded"
		connected = false
	}

	data := healthData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: connected},
	}

	response.Success(w, http.StatusOK, data, requestID)
}
