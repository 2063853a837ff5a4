package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukkan-pos/dukkan/internal/shared"
)

// Service manages the customer list.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewService constructs Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		validate: shared.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// AddCustomer registers a customer with zero debt.
func (s *Service) AddCustomer(ctx context.Context, req CreateCustomerRequest) (Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if verr := shared.ValidateStruct(s.validate, req); verr != nil {
		return Customer{}, verr
	}
	customer := Customer{
		ID:        s.newID(),
		Name:      req.Name,
		Phone:     req.Phone,
		Debt:      decimal.Zero,
		CreatedAt: s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		all, err := tx.Customers()
		if err != nil {
			return err
		}
		return tx.SaveCustomers(append(all, customer))
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	s.logger.Info("customer added", slog.String("customer_id", customer.ID))
	return customer, nil
}

// ListCustomers returns every customer in insertion order.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.List(ctx)
}

// GetCustomer returns the customer with id or ErrNotFound.
func (s *Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Customer{}, err
	}
	idx := IndexByID(all, id)
	if idx < 0 {
		return Customer{}, fmt.Errorf("%w: %s: %w", ErrNotFound, id, shared.ErrNotFound)
	}
	return all[idx], nil
}

// FindByNameSubstring returns customers whose name contains query, matched case-sensitively.
func (s *Service) FindByNameSubstring(ctx context.Context, query string) ([]Customer, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(all))
	for _, c := range all {
		if strings.Contains(c.Name, query) {
			out = append(out, c)
		}
	}
	return out, nil
}

// TotalDebt sums outstanding debt across customers.
func (s *Service) TotalDebt(ctx context.Context) (decimal.Decimal, int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return decimal.Zero, 0, err
	}
	total := decimal.Zero
	for _, c := range all {
		total = total.Add(c.Debt)
	}
	return total, len(all), nil
}
