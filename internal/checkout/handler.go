package checkout

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dukkan-pos/dukkan/internal/platform/httpx"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

// Handler wires HTTP endpoints for the sale screen.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs checkout handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: shared.NewValidator()}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/cart", h.handleCart)
	r.Post("/checkout", h.handleCheckout)
	r.Get("/export.csv", h.handleExport)
	r.Get("/{id}", h.handleGet)
}

type cartRequest struct {
	Lines []Line `json:"lines" validate:"dive"`
}

func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	if verr := shared.ValidateStruct(h.validate, req); verr != nil {
		httpx.Fail(w, r, h.logger, verr)
		return
	}
	_, quote, err := h.service.BuildCart(r.Context(), req.Lines)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	if verr := shared.ValidateStruct(h.validate, req); verr != nil {
		httpx.Fail(w, r, h.logger, verr)
		return
	}
	cart, _, err := h.service.BuildCart(r.Context(), req.Lines)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	sale, err := h.service.Checkout(r.Context(), Request{Cart: cart, CustomerID: req.CustomerID, AmountPaid: req.AmountPaid})
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

type saleListResponse struct {
	Items      []Sale            `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	// newest first
	ordered := make([]Sale, len(sales))
	for i := range sales {
		ordered[len(sales)-1-i] = sales[i]
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, meta := shared.Paginate(ordered, page, perPage)
	httpx.JSON(w, http.StatusOK, saleListResponse{Items: items, Pagination: meta})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sale, err := h.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		h.logger.Error("export sales csv", slog.Any("error", err))
	}
}
