package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/dukkan-pos/dukkan/internal/customers"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/store"
)

// Checkout outcomes reported to the Recorder.
const (
	OutcomeOK                = "ok"
	OutcomeValidation        = "validation"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvariant         = "invariant"
	OutcomeError             = "error"
)

// ErrSaleNotFound is returned when no sale has the requested id.
var ErrSaleNotFound = errors.New("checkout: sale not found")

// Recorder observes checkout attempts.
type Recorder interface {
	CheckoutRecorded(outcome string, revenue decimal.Decimal)
}

// Config groups checkout settings.
type Config struct {
	Policy OverpaymentPolicy
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Service commits sales against products, customers and the sale log.
type Service struct {
	store    store.Store
	node     *snowflake.Node
	policy   OverpaymentPolicy
	now      func() time.Time
	logger   *slog.Logger
	recorder Recorder
}

// NewService builds Service. node issues sale ids.
func NewService(st store.Store, node *snowflake.Node, cfg Config, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyClamp
	}
	return &Service{store: st, node: node, policy: policy, now: now, logger: logger, recorder: recorder}
}

// Policy returns the active overpayment policy.
func (s *Service) Policy() OverpaymentPolicy { return s.policy }

// BuildCart validates submitted lines against current stock and prices them.
func (s *Service) BuildCart(ctx context.Context, lines []Line) (*Cart, Quote, error) {
	products, err := store.LoadList[inventory.Product](ctx, s.store, store.KeyProducts)
	if err != nil {
		return nil, Quote{}, err
	}
	cart := NewCart()
	verr := &shared.ValidationError{}
	for i, line := range lines {
		field := fmt.Sprintf("lines[%d]", i)
		idx := inventory.IndexByID(products, line.ProductID)
		if idx < 0 {
			verr.Add(field+".productId", "unknown product")
			continue
		}
		if line.Quantity == 0 {
			cart.Remove(line.ProductID)
			continue
		}
		if err := cart.AddLine(products[idx], line.Quantity); err != nil {
			var lineErr *shared.ValidationError
			if errors.As(err, &lineErr) {
				verr.Add(field+".quantity", lineErr.Fields["quantity"])
				continue
			}
			return nil, Quote{}, err
		}
	}
	if !verr.Empty() {
		return nil, Quote{}, verr
	}
	return cart, priceCart(cart, products), nil
}

func priceCart(cart *Cart, products []inventory.Product) Quote {
	quote := Quote{Lines: make([]QuoteLine, 0, cart.Len()), Total: decimal.Zero}
	for _, line := range cart.Lines() {
		p := products[inventory.IndexByID(products, line.ProductID)]
		lineTotal := p.SellPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		quote.Lines = append(quote.Lines, QuoteLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Available: p.Quantity,
			UnitPrice: p.SellPrice,
			LineTotal: lineTotal,
		})
		quote.Total = quote.Total.Add(lineTotal)
	}
	return quote
}

// Checkout turns req into a Sale. Stock decrement, debt change and the new
// sale are written in one store transaction; on any error nothing changes.
func (s *Service) Checkout(ctx context.Context, req Request) (Sale, error) {
	sale, err := s.checkout(ctx, req)
	outcome := outcomeOf(err)
	if s.recorder != nil {
		s.recorder.CheckoutRecorded(outcome, sale.Total)
	}
	switch outcome {
	case OutcomeOK:
		attrs := []any{slog.String("sale_id", sale.ID), slog.String("total", sale.Total.String()), slog.Int("items", len(sale.Items))}
		if sale.Customer != nil {
			attrs = append(attrs, slog.String("customer_id", sale.Customer.ID))
		}
		s.logger.Info("checkout completed", attrs...)
	case OutcomeInvariant, OutcomeError:
		s.logger.Error("checkout failed", slog.String("outcome", outcome), slog.Any("error", err))
	default:
		s.logger.Info("checkout rejected", slog.String("outcome", outcome), slog.Any("error", err))
	}
	return sale, err
}

func (s *Service) checkout(ctx context.Context, req Request) (Sale, error) {
	if req.Cart.Len() == 0 {
		return Sale{}, shared.NewValidationError("lines", "cart is empty")
	}
	if req.AmountPaid.IsNegative() {
		return Sale{}, shared.NewValidationError("amountPaid", "must be greater than or equal to 0")
	}
	if req.CustomerID != "" {
		if err := s.requireCustomer(ctx, req.CustomerID); err != nil {
			return Sale{}, err
		}
	}
	lines := req.Cart.Lines()

	var sale Sale
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		products, err := inventory.LoadProducts(tx)
		if err != nil {
			return err
		}
		items := make([]SaleItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			idx := inventory.IndexByID(products, line.ProductID)
			if idx < 0 {
				return &shared.InvariantViolation{Detail: fmt.Sprintf("product %s in cart no longer exists", line.ProductID)}
			}
			p := products[idx]
			if p.Quantity-line.Quantity < 0 {
				return &shared.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: line.Quantity, Available: p.Quantity}
			}
			item := SaleItem{Product: p, Quantity: line.Quantity}
			total = total.Add(item.LineTotal())
			items = append(items, item)
			products[idx].Quantity -= line.Quantity
		}

		var ref *CustomerRef
		if req.CustomerID != "" {
			all, err := customers.LoadCustomers(tx)
			if err != nil {
				return err
			}
			idx := customers.IndexByID(all, req.CustomerID)
			if idx < 0 {
				return &shared.InvariantViolation{Detail: fmt.Sprintf("customer %s no longer exists", req.CustomerID)}
			}
			if delta := s.policy.DebtDelta(total, req.AmountPaid); !delta.IsZero() {
				all[idx].Debt = all[idx].Debt.Add(delta)
				if err := customers.SaveCustomers(tx, all); err != nil {
					return err
				}
			}
			ref = customerRef(all[idx])
		}

		sales, err := LoadSales(tx)
		if err != nil {
			return err
		}
		id := s.node.Generate().String()
		for i := range sales {
			if sales[i].ID == id {
				return &shared.InvariantViolation{Detail: fmt.Sprintf("sale id %s already issued", id)}
			}
		}
		sale = Sale{
			ID:         id,
			Date:       s.now().UTC(),
			Items:      items,
			Total:      total,
			AmountPaid: req.AmountPaid,
			Customer:   ref,
		}
		if err := inventory.SaveProducts(tx, products); err != nil {
			return err
		}
		return SaveSales(tx, append(sales, sale))
	})
	if err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// requireCustomer rejects an unknown customer id before the transaction starts.
// A customer removed after this check is an invariant violation inside Update.
func (s *Service) requireCustomer(ctx context.Context, id string) error {
	all, err := store.LoadList[customers.Customer](ctx, s.store, store.KeyCustomers)
	if err != nil {
		return err
	}
	if customers.IndexByID(all, id) < 0 {
		return shared.NewValidationError("customerId", "unknown customer")
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, shared.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, shared.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, shared.ErrInvariant):
		return OutcomeInvariant
	default:
		return OutcomeError
	}
}

// ListSales returns the sale log, oldest first.
func (s *Service) ListSales(ctx context.Context) ([]Sale, error) {
	return store.LoadList[Sale](ctx, s.store, store.KeySales)
}

// GetSale returns the sale with id.
func (s *Service) GetSale(ctx context.Context, id string) (Sale, error) {
	sales, err := s.ListSales(ctx)
	if err != nil {
		return Sale{}, err
	}
	for _, sale := range sales {
		if sale.ID == id {
			return sale, nil
		}
	}
	return Sale{}, fmt.Errorf("%w: %s: %w", ErrSaleNotFound, id, shared.ErrNotFound)
}

// Revenue sums totals and payments over every sale.
func (s *Service) Revenue(ctx context.Context) (total, paid decimal.Decimal, count int, err error) {
	sales, err := s.ListSales(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, err
	}
	total, paid = decimal.Zero, decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.Total)
		paid = paid.Add(sale.AmountPaid)
	}
	return total, paid, len(sales), nil
}
