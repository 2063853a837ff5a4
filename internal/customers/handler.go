package customers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dukkan-pos/dukkan/internal/platform/httpx"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type listResponse struct {
	Items      []Customer        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	found, err := h.service.FindByNameSubstring(r.Context(), q.Get("search"))
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, meta := shared.Paginate(found, page, perPage)
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: meta})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	customer, err := h.service.AddCustomer(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="customers.csv"`)
	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		h.logger.Error("export customers csv", slog.Any("error", err))
	}
}
