package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Unit enumerates how a product is counted on the shelf.
type Unit string

const (
	// UnitBox counts whole boxes.
	UnitBox Unit = "box"
	// UnitKilo counts kilograms.
	UnitKilo Unit = "kilo"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return u == UnitBox || u == UnitKilo
}

// Product is one sellable item. Quantity is never negative.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	Unit          Unit            `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellPrice     decimal.Decimal `json:"sellPrice"`
	Image         string          `json:"image,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Quantity > 0
}

// ProductInput carries a product form as submitted. Numeric fields accept
// JSON numbers or numeric strings.
type ProductInput struct {
	Name          string `json:"name" validate:"required"`
	Quantity      any    `json:"quantity"`
	Unit          Unit   `json:"unit" validate:"omitempty,oneof=box kilo"`
	PurchasePrice any    `json:"purchasePrice"`
	SellPrice     any    `json:"sellPrice"`
	Image         string `json:"image,omitempty" validate:"omitempty,datauri"`
}

// imagePromptFormat is the prompt sent to the image model for a product name.
const imagePromptFormat = "professional product photo of %s on a white background"

// ErrProductNotFound is returned when no product has the requested id.
var ErrProductNotFound = errors.New("inventory: product not found")
