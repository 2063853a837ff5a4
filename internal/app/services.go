package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/snowflake"

	"github.com/dukkan-pos/dukkan/internal/assist"
	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/customers"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/invoice"
	"github.com/dukkan-pos/dukkan/internal/observability"
	"github.com/dukkan-pos/dukkan/internal/settings"
	"github.com/dukkan-pos/dukkan/internal/store"
)

// Services holds the domain services built over one Store.
type Services struct {
	Store     store.Store
	Assist    *assist.Adapter
	Inventory *inventory.Service
	Customers *customers.Service
	Checkout  *checkout.Service
	Settings  *settings.Service
	Invoices  *invoice.Renderer
}

// NewServices wires every service against st. metrics may be nil.
func NewServices(st store.Store, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var provider assist.Provider = assist.Disabled{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := assist.NewGemini(context.Background(), cfg.GeminiBaseURL, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		provider = gemini
	} else {
		logger.Info("generation service disabled, category sort uses the alphabetical fallback")
	}
	adapterOpts := []assist.Option{assist.WithTimeout(cfg.AssistTimeout), assist.WithLogger(logger)}
	if metrics != nil {
		adapterOpts = append(adapterOpts, assist.WithRecorder(metrics))
	}
	adapter := assist.NewAdapter(provider, adapterOpts...)

	policy, err := checkout.ParseOverpaymentPolicy(cfg.OverpaymentPolicy)
	if err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("app: snowflake node: %w", err)
	}

	inventoryService := inventory.NewService(inventory.NewRepository(st), adapter, logger)
	customerService := customers.NewService(customers.NewRepository(st), logger)
	var recorder checkout.Recorder
	if metrics != nil {
		recorder = metrics
	}
	checkoutService := checkout.NewService(st, node, checkout.Config{Policy: policy}, logger, recorder)
	settingsService := settings.NewService(st, inventoryService, customerService, checkoutService, settings.DashboardConfig{
		CurrencyLabel:     cfg.CurrencyLabel,
		ExchangeRateLabel: cfg.ExchangeRateLabel,
	}, logger)

	return &Services{
		Store:     st,
		Assist:    adapter,
		Inventory: inventoryService,
		Customers: customerService,
		Checkout:  checkoutService,
		Settings:  settingsService,
		Invoices:  invoice.NewRenderer(invoice.NewFormatter(cfg.Locale, cfg.CurrencyLabel)),
	}, nil
}
