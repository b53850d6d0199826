// internal/checkout/payment.go
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentCard carries the card details collected at checkout.
type PaymentCard struct {
	Number     string `json:"number"`
	Expiration string `json:"expiration"`
	CVV        string `json:"cvv"`
}

// PaymentProcessor authorizes a charge before any stock is touched.
type PaymentProcessor interface {
	Authorize(ctx context.Context, card PaymentCard, amount decimal.Decimal) error
}

// approveAllProcessor accepts every charge. It stands in for a payment
// gateway integration, which is out of scope.
type approveAllProcessor struct{}

// NewApproveAllProcessor returns a processor that authorizes every charge.
func NewApproveAllProcessor() PaymentProcessor {
	return approveAllProcessor{}
}

func (approveAllProcessor) Authorize(ctx context.Context, card PaymentCard, amount decimal.Decimal) error {
	return nil
}
