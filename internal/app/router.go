package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/customers"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/invoice"
	"github.com/dukkan-pos/dukkan/internal/observability"
	"github.com/dukkan-pos/dukkan/internal/platform/httpx"
	"github.com/dukkan-pos/dukkan/internal/settings"
	"github.com/dukkan-pos/dukkan/internal/view"
	"github.com/dukkan-pos/dukkan/jobs"
	"github.com/dukkan-pos/dukkan/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Services   *Services
	Templates  *view.Engine
	PDF        *report.Client
	ImageQueue inventory.ImageQueue
	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router. Every domain route except the store
// profile answers 428 until setup has been completed.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svc := params.Services

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	settingsHandler := settings.NewHandler(logger, svc.Settings)
	r.Route("/settings", settingsHandler.MountSettings)

	var pdf invoice.PDFRenderer
	if params.PDF.Enabled() {
		pdf = params.PDF
	}
	inventoryHandler := inventory.NewHandler(logger, svc.Inventory, params.ImageQueue)
	customerHandler := customers.NewHandler(logger, svc.Customers)
	checkoutHandler := checkout.NewHandler(logger, svc.Checkout)
	invoiceHandler := invoice.NewHandler(logger, svc.Checkout, svc.Settings, svc.Invoices, params.Templates, pdf)

	r.Group(func(r chi.Router) {
		r.Use(settingsHandler.RequireSetup)
		r.Get("/dashboard", settingsHandler.HandleDashboard)
		r.Route("/inventory", inventoryHandler.MountRoutes)
		r.Route("/customers", customerHandler.MountRoutes)
		r.Route("/sales", func(r chi.Router) {
			checkoutHandler.MountRoutes(r)
			invoiceHandler.MountRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	return r
}
