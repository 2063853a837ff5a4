package settings

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukkan-pos/dukkan/internal/platform/httpx"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

// Handler serves the store profile and the dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs settings handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountSettings registers /settings routes.
func (h *Handler) MountSettings(r chi.Router) {
	r.Get("/", h.handleGet)
	r.Post("/", h.handleSetup)
}

// HandleDashboard serves GET /dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.StoreInfo(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	var info StoreInfo
	if err := httpx.DecodeJSON(r, &info); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	saved, err := h.service.Setup(r.Context(), info)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

// RequireSetup rejects requests with 428 until the store profile exists.
func (h *Handler) RequireSetup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.service.Configured(r.Context())
		if err != nil {
			httpx.Fail(w, r, h.logger, err)
			return
		}
		if !ok {
			httpx.RespondError(w, shared.ErrSetupRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
