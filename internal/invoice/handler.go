package invoice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/platform/httpx"
	"github.com/dukkan-pos/dukkan/internal/settings"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/view"
	"github.com/dukkan-pos/dukkan/report"
)

// SaleSource resolves a recorded sale.
type SaleSource interface {
	GetSale(ctx context.Context, id string) (checkout.Sale, error)
}

// StoreInfoSource returns the configured store profile.
type StoreInfoSource interface {
	StoreInfo(ctx context.Context) (settings.StoreInfo, error)
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string, paper report.Paper) ([]byte, error)
}

// Handler serves invoices of recorded sales.
type Handler struct {
	logger   *slog.Logger
	sales    SaleSource
	info     StoreInfoSource
	renderer *Renderer
	views    *view.Engine
	pdf      PDFRenderer
}

// NewHandler constructs the invoice handler. pdf may be nil, in which case the
// pdf format answers 501.
func NewHandler(logger *slog.Logger, sales SaleSource, info StoreInfoSource, renderer *Renderer, views *view.Engine, pdf PDFRenderer) *Handler {
	if renderer == nil {
		renderer = NewRenderer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, sales: sales, info: info, renderer: renderer, views: views, pdf: pdf}
}

// MountRoutes registers invoice routes beneath a sale router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/invoice", h.handleInvoice)
	r.Get("/{id}/share", h.handleShare)
}

func (h *Handler) document(r *http.Request) (Document, error) {
	sale, err := h.sales.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return Document{}, err
	}
	info, err := h.info.StoreInfo(r.Context())
	if err != nil {
		return Document{}, err
	}
	return h.renderer.Render(sale, info), nil
}

type documentResponse struct {
	View
	Text string `json:"text"`
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	doc, err := h.document(r)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "html":
		if err := h.views.Render(w, "invoice.html", h.templateData(doc)); err != nil {
			httpx.Fail(w, r, h.logger, err)
		}
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(doc.Text()))
	case "json":
		httpx.JSON(w, http.StatusOK, documentResponse{View: doc.View(), Text: doc.Text()})
	case "pdf":
		h.writePDF(w, r, doc)
	default:
		httpx.Fail(w, r, h.logger, shared.NewValidationError("format", "must be one of html, text, json, pdf"))
	}
}

func (h *Handler) writePDF(w http.ResponseWriter, r *http.Request, doc Document) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusNotImplemented, "PDF Unavailable", report.ErrNotConfigured.Error())
		return
	}
	html, err := h.views.String("invoice.html", h.templateData(doc))
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html, report.PaperA5)
	if errors.Is(err, report.ErrNotConfigured) {
		httpx.Problem(w, http.StatusNotImplemented, "PDF Unavailable", err.Error())
		return
	}
	if err != nil {
		h.logger.Warn("render invoice pdf", slog.String("sale_id", doc.SaleID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "the document service did not respond")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="invoice-`+doc.SaleID+`.pdf"`)
	_, _ = w.Write(pdf)
}

type shareResponse struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	doc, err := h.document(r)
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	link, err := ShareLink(doc)
	if errors.Is(err, ErrNoCustomerPhone) {
		httpx.Fail(w, r, h.logger, shared.NewValidationError("customer", "sale has no customer phone number"))
		return
	}
	if err != nil {
		httpx.Fail(w, r, h.logger, err)
		return
	}
	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, link, http.StatusFound)
		return
	}
	httpx.JSON(w, http.StatusOK, shareResponse{URL: link, Text: doc.Text()})
}

func (h *Handler) templateData(doc Document) view.TemplateData {
	f := h.renderer.Formatter()
	return view.TemplateData{
		Title: doc.StoreName + " #" + doc.SaleID,
		Lang:  f.Lang(),
		Dir:   f.Dir(),
		Data:  doc.View(),
	}
}
