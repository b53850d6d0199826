// internal/checkout/domain.go
package checkout

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPaymentDeclined reports a rejected payment authorization.
var ErrPaymentDeclined = errors.New("payment declined")

// Outcome tags the result of a checkout attempt. An empty cart is an
// informational outcome, not an error.
type Outcome string

const (
	OutcomePaid      Outcome = "paid"
	OutcomeEmptyCart Outcome = "emptyCart"
)

// ChargedLine records one settled cart line.
type ChargedLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Result is the outcome of a checkout.
type Result struct {
	Outcome Outcome         `json:"outcome"`
	Total   decimal.Decimal `json:"total"`
	Lines   []ChargedLine   `json:"lines,omitempty"`
}
