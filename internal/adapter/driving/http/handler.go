// Package httphandler is the JSON API driving adapter and the HTTP
// middleware shared by every route.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// Authenticator resolves the identity behind a request's session, or nil
// when the request is not signed in.
type Authenticator interface {
	Authenticate(r *http.Request) (*model.Identity, error)
}

// FleetReader computes the fleet dashboard for an identity.
type FleetReader interface {
	Dashboard(ctx context.Context, id model.Identity, search string) (model.FleetStatus, error)
	Today() time.Time
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth   Authenticator
	fleet  FleetReader
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(auth Authenticator, fleet FleetReader, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, fleet: fleet, logger: logger}
}

// RegisterAPIRoutes registers the JSON API on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/fleet", h.Fleet)
}

// Health reports liveness. It needs no session.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Fleet returns the dashboard as JSON. The optional search query parameter
// narrows the vessel list.
func (h *Handler) Fleet(w http.ResponseWriter, r *http.Request) {
	id, err := h.auth.Authenticate(r)
	if err != nil {
		h.logger.Error("failed to authenticate request", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if id == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	status, err := h.fleet.Dashboard(r.Context(), *id, r.URL.Query().Get("search"))
	if errors.Is(err, application.ErrForbidden) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if err != nil {
		h.logger.Error("failed to compute fleet status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toFleetResponse(status, h.fleet.Today().Format(model.DateLayout)))
}
