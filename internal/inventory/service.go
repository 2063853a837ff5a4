package inventory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/dukkan-pos/dukkan/internal/assist"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Product, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Assistant is the slice of the AI assist adapter inventory depends on.
type Assistant interface {
	RequestImage(ctx context.Context, prompt string) ([]byte, error)
	RequestCategorySort(ctx context.Context, names []string) []string
}

// Service coordinates inventory operations.
type Service struct {
	repo     RepositoryPort
	assist   Assistant
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// ServiceOption customises Service construction.
type ServiceOption func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides product id generation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) { s.newID = fn }
}

// NewService builds Service. A nil assistant makes reordering use the
// deterministic fallback and image generation fail with a GenerationError.
func NewService(repo RepositoryPort, assistant Assistant, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		assist:   assistant,
		logger:   logger,
		validate: shared.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProduct validates input and appends a new product.
func (s *Service) AddProduct(ctx context.Context, input ProductInput) (Product, error) {
	fields, err := s.normalise(input)
	if err != nil {
		return Product{}, err
	}
	product := Product{
		ID:            s.newID(),
		Name:          fields.name,
		Quantity:      fields.quantity,
		Unit:          fields.unit,
		PurchasePrice: fields.purchasePrice,
		SellPrice:     fields.sellPrice,
		Image:         input.Image,
		CreatedAt:     s.now(),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		return tx.SaveProducts(append(products, product))
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product added", slog.String("product_id", product.ID), slog.String("name", product.Name), slog.Int("quantity", product.Quantity))
	return product, nil
}

// ListProducts returns products in stored order.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// SearchProducts returns products whose name contains query. Matching is
// case-sensitive. With inStockOnly, sold-out products are hidden.
func (s *Service) SearchProducts(ctx context.Context, query string, inStockOnly bool) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !strings.Contains(p.Name, query) {
			continue
		}
		if inStockOnly && !p.InStock() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetProduct returns the product with id.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return Product{}, err
	}
	idx := IndexByID(products, id)
	if idx < 0 {
		return Product{}, notFound(id)
	}
	return products[idx], nil
}

// UpdateProduct replaces the editable fields of an existing product. Past
// sales keep their own snapshots and are unaffected.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error) {
	fields, err := s.normalise(input)
	if err != nil {
		return Product{}, err
	}
	var updated Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		idx := IndexByID(products, id)
		if idx < 0 {
			return notFound(id)
		}
		p := products[idx]
		p.Name = fields.name
		p.Quantity = fields.quantity
		p.Unit = fields.unit
		p.PurchasePrice = fields.purchasePrice
		p.SellPrice = fields.sellPrice
		if input.Image != "" {
			p.Image = input.Image
		}
		products[idx] = p
		updated = p
		return tx.SaveProducts(products)
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product updated", slog.String("product_id", id))
	return updated, nil
}

// AttachImage stores image (a data URL) on the product.
func (s *Service) AttachImage(ctx context.Context, id, image string) (Product, error) {
	if !strings.HasPrefix(image, "data:") {
		return Product{}, shared.NewValidationError("image", "must be a data URL")
	}
	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		products, err := tx.Products()
		if err != nil {
			return err
		}
		idx := IndexByID(products, id)
		if idx < 0 {
			return notFound(id)
		}
		products[idx].Image = image
		updated = products[idx]
		return tx.SaveProducts(products)
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// GenerateImage asks the assistant for a product photo and returns it as a
// PNG data URL. Failures surface as *assist.GenerationError and may be retried.
func (s *Service) GenerateImage(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError("name", "is required")
	}
	if s.assist == nil {
		return "", &assist.GenerationError{Op: assist.OpImage, Err: assist.ErrDisabled}
	}
	raw, err := s.assist.RequestImage(ctx, fmt.Sprintf(imagePromptFormat, name))
	if err != nil {
		s.logger.Warn("image generation failed", slog.String("name", name), slog.Any("error", err))
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// GenerateAndAttach generates an image for an existing product and stores it.
func (s *Service) GenerateAndAttach(ctx context.Context, id string) (Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	image, err := s.GenerateImage(ctx, product.Name)
	if err != nil {
		return Product{}, err
	}
	return s.AttachImage(ctx, id, image)
}

// ReorderByCategory asks the assistant to group product names by category and
// persists the resulting order. Each product moves to the first position its
// name occupies in the suggestion; names missing from it keep their relative
// order at the end.
func (s *Service) ReorderByCategory(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	var suggested []string
	if s.assist != nil {
		suggested = s.assist.RequestCategorySort(ctx, names)
	} else {
		suggested = assist.FallbackSort(names)
	}
	rank := make(map[string]int, len(suggested))
	for i, name := range suggested {
		if _, seen := rank[name]; !seen {
			rank[name] = i
		}
	}

	var ordered []Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Reload so products added while the assistant was busy are kept.
		current, err := tx.Products()
		if err != nil {
			return err
		}
		ordered = ApplyOrder(current, rank)
		return tx.SaveProducts(ordered)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("products reordered", slog.Int("count", len(ordered)))
	return ordered, nil
}

// ApplyOrder returns a copy of products stably sorted by rank of their name.
// Unranked names go last in their original order.
func ApplyOrder(products []Product, rank map[string]int) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	pos := func(p Product) int {
		if r, ok := rank[p.Name]; ok {
			return r
		}
		return math.MaxInt
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pos(out[i]) < pos(out[j])
	})
	return out
}

type productFields struct {
	name          string
	quantity      int
	unit          Unit
	purchasePrice decimal.Decimal
	sellPrice     decimal.Decimal
}

func (s *Service) normalise(input ProductInput) (productFields, error) {
	input.Name = strings.TrimSpace(input.Name)
	verr := shared.ValidateStruct(s.validate, input)
	if verr == nil {
		verr = &shared.ValidationError{}
	}
	fields := productFields{name: input.Name, unit: input.Unit}
	if fields.unit == "" {
		fields.unit = UnitBox
	}

	if qty, msg := parseQuantity(input.Quantity); msg != "" {
		verr.Add("quantity", msg)
	} else {
		fields.quantity = qty
	}
	if price, msg := parseAmount(input.PurchasePrice); msg != "" {
		verr.Add("purchasePrice", msg)
	} else {
		fields.purchasePrice = price
	}
	if price, msg := parseAmount(input.SellPrice); msg != "" {
		verr.Add("sellPrice", msg)
	} else {
		fields.sellPrice = price
	}
	if !verr.Empty() {
		return productFields{}, verr
	}
	return fields, nil
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	str, ok := v.(string)
	return ok && strings.TrimSpace(str) == ""
}

func parseQuantity(v any) (int, string) {
	if isBlank(v) {
		return 0, "is required"
	}
	if str, ok := v.(string); ok {
		v = strings.TrimSpace(str)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || isBool(v) || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "must be a number"
	}
	if f != math.Trunc(f) {
		return 0, "must be a whole number"
	}
	if f < 0 {
		return 0, "must be greater than or equal to 0"
	}
	if f > math.MaxInt32 {
		return 0, "is too large"
	}
	return int(f), ""
}

func parseAmount(v any) (decimal.Decimal, string) {
	if isBlank(v) {
		return decimal.Zero, "is required"
	}
	var (
		d   decimal.Decimal
		err error
	)
	switch val := v.(type) {
	case decimal.Decimal:
		d = val
	case float64:
		d = decimal.NewFromFloat(val)
	default:
		var str string
		str, err = cast.ToStringE(v)
		if err == nil {
			d, err = decimal.NewFromString(strings.TrimSpace(str))
		}
	}
	if err != nil || isBool(v) {
		return decimal.Zero, "must be a number"
	}
	if d.IsNegative() {
		return decimal.Zero, "must be greater than or equal to 0"
	}
	return d, ""
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s: %w", ErrProductNotFound, id, shared.ErrNotFound)
}

// IsNotFound reports whether err denotes a missing product.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}
