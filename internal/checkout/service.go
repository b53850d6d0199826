// internal/checkout/service.go
package checkout

import (
	"context"

	"storefront/internal/cart"
)

// Service defines the interface for the checkout service. All operations act
// on the cart owned by the addressed customer and persist the catalog store
// before returning.
type Service interface {
	GetCart(ctx context.Context, customerID string) (cart.Snapshot, error)
	AddItem(ctx context.Context, customerID, productID string, qty int) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	UpdateItemQuantity(ctx context.Context, customerID, productID string, qty int) error
	ClearCart(ctx context.Context, customerID string) error
	Checkout(ctx context.Context, customerID string, card PaymentCard) (*Result, error)
}
