package checkout

import (
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

// Cart is the ordered set of lines being sold. Quantities are always positive
// and never exceed the stock known when the line was entered.
type Cart struct {
	lines []Line
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine adds qty of p, merging with an existing line for the same product.
func (c *Cart) AddLine(p inventory.Product, qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be greater than 0")
	}
	if idx := c.index(p.ID); idx >= 0 {
		return c.SetQuantity(p, c.lines[idx].Quantity+qty)
	}
	if qty > p.Quantity {
		return insufficient(p, qty)
	}
	c.lines = append(c.lines, Line{ProductID: p.ID, Quantity: qty})
	return nil
}

// SetQuantity sets the line for p to qty. Zero removes the line; a new product
// is appended at the end.
func (c *Cart) SetQuantity(p inventory.Product, qty int) error {
	if qty < 0 {
		return shared.NewValidationError("quantity", "must be greater than or equal to 0")
	}
	if qty == 0 {
		c.Remove(p.ID)
		return nil
	}
	if qty > p.Quantity {
		return insufficient(p, qty)
	}
	if idx := c.index(p.ID); idx >= 0 {
		c.lines[idx].Quantity = qty
		return nil
	}
	c.lines = append(c.lines, Line{ProductID: p.ID, Quantity: qty})
	return nil
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID string) {
	if idx := c.index(productID); idx >= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	}
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len is the number of distinct products in the cart.
func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func insufficient(p inventory.Product, qty int) error {
	return &shared.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Quantity}
}
