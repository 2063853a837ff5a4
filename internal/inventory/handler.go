package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/dukkan-pos/dukkan/internal/platform/httpx"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

// ImageQueue schedules background image generation for a product.
type ImageQueue interface {
	EnqueueProductImage(ctx context.Context, productID string) error
}

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	images  ImageQueue
}

// NewHandler constructs inventory handler. With a nil queue product images are
// generated inside the request.
func NewHandler(logger *slog.Logger, service *Service, images ImageQueue) *Handler {
	return &Handler{logger: logger, service: service, images: images}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.handleList)
	r.Post("/products", h.handleCreate)
	r.Get("/products/{id}", h.handleGet)
	r.Put("/products/{id}", h.handleUpdate)
	r.Post("/products/{id}/image", h.handleProductImage)
	r.Post("/images", h.handleImagePreview)
	r.Post("/reorder", h.handleReorder)
	r.Get("/export.csv", h.handleExport)
}

type productListResponse struct {
	Items      []Product         `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	inStock := cast.ToBool(q.Get("in_stock"))
	products, err := h.service.SearchProducts(r.Context(), q.Get("search"), inStock)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, meta := shared.Paginate(products, page, perPage)
	httpx.JSON(w, http.StatusOK, productListResponse{Items: items, Pagination: meta})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	product, err := h.service.AddProduct(r.Context(), input)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleProductImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.images != nil {
		if _, err := h.service.GetProduct(r.Context(), id); err != nil {
			httpx.Fail(w, r, h.logger, err)
			return
		}
		if err := h.images.EnqueueProductImage(r.Context(), id); err != nil {
			httpx.Fail(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued", "productId": id})
		return
	}
	product, err := h.service.GenerateAndAttach(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

type imagePreviewRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleImagePreview(w http.ResponseWriter, r *http.Request) {
	var req imagePreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, r, h.logger, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	image, err := h.service.GenerateImage(r.Context(), req.Name)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"image": image})
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ReorderByCategory(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		h.logger.Error("export inventory csv", slog.Any("error", err))
	}
}
