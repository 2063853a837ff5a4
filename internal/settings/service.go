package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/store"
)

// ProductLister lists inventory.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
}

// DebtTotaler sums customer debt.
type DebtTotaler interface {
	TotalDebt(ctx context.Context) (decimal.Decimal, int, error)
}

// RevenueTotaler sums the sale log.
type RevenueTotaler interface {
	Revenue(ctx context.Context) (total, paid decimal.Decimal, count int, err error)
}

// DashboardConfig carries display labels. The exchange rate is a configured
// placeholder, never fetched.
type DashboardConfig struct {
	CurrencyLabel     string
	ExchangeRateLabel string
}

// Service owns the store profile and the dashboard.
type Service struct {
	store     store.Store
	products  ProductLister
	customers DebtTotaler
	sales     RevenueTotaler
	cfg       DashboardConfig
	logger    *slog.Logger
	validate  *validator.Validate
}

// NewService constructs Service.
func NewService(st store.Store, products ProductLister, customers DebtTotaler, sales RevenueTotaler, cfg DashboardConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, products: products, customers: customers, sales: sales, cfg: cfg, logger: logger, validate: shared.NewValidator()}
}

// StoreInfo returns the profile or shared.ErrSetupRequired before first-run setup.
func (s *Service) StoreInfo(ctx context.Context) (StoreInfo, error) {
	var info StoreInfo
	found, err := s.store.Load(ctx, store.KeyStoreInfo, &info)
	if err != nil {
		return StoreInfo{}, fmt.Errorf("settings: load store info: %w", err)
	}
	if !found {
		return StoreInfo{}, shared.ErrSetupRequired
	}
	return info, nil
}

// Configured reports whether setup has completed.
func (s *Service) Configured(ctx context.Context) (bool, error) {
	_, err := s.StoreInfo(ctx)
	if errors.Is(err, shared.ErrSetupRequired) {
		return false, nil
	}
	return err == nil, err
}

// Setup stores the profile. Calling it again replaces the name and phone.
func (s *Service) Setup(ctx context.Context, info StoreInfo) (StoreInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	if verr := shared.ValidateStruct(s.validate, info); verr != nil {
		return StoreInfo{}, verr
	}
	if err := s.store.Save(ctx, store.KeyStoreInfo, info); err != nil {
		return StoreInfo{}, fmt.Errorf("settings: save store info: %w", err)
	}
	s.logger.Info("store profile saved", slog.String("name", info.Name))
	return info, nil
}

// Dashboard gathers the summary figures concurrently.
func (s *Service) Dashboard(ctx context.Context) (Summary, error) {
	summary := Summary{
		CurrencyLabel:     s.cfg.CurrencyLabel,
		ExchangeRateLabel: s.cfg.ExchangeRateLabel,
		StockValue:        decimal.Zero,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := s.StoreInfo(gctx)
		summary.Store = info
		return err
	})
	g.Go(func() error {
		products, err := s.products.ListProducts(gctx)
		if err != nil {
			return err
		}
		summary.ProductCount = len(products)
		for _, p := range products {
			if !p.InStock() {
				summary.OutOfStockCount++
			}
			summary.StockValue = summary.StockValue.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
		}
		return nil
	})
	g.Go(func() error {
		debt, count, err := s.customers.TotalDebt(gctx)
		summary.OutstandingDebt, summary.CustomerCount = debt, count
		return err
	})
	g.Go(func() error {
		revenue, collected, count, err := s.sales.Revenue(gctx)
		summary.Revenue, summary.Collected, summary.SaleCount = revenue, collected, count
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
