package customers

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a buyer who may carry debt. Debt only changes through checkout.
type Customer struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Debt      decimal.Decimal `json:"debt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HasDebt reports whether the customer owes money.
func (c Customer) HasDebt() bool {
	return c.Debt.IsPositive()
}

var (
	// ErrNotFound is returned when no customer has the requested id.
	ErrNotFound = errors.New("customers: customer not found")
)
