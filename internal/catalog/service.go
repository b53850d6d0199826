// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductInput carries the caller-supplied fields of a plain product.
type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	InvoicePrice decimal.Decimal
	Quantity     int
}

// Service defines the interface for the catalog service. All mutating
// operations act on behalf of the owning seller and persist the catalog
// store before returning.
type Service interface {
	AddProduct(ctx context.Context, sellerID string, in ProductInput) (*Product, error)
	AddBundle(ctx context.Context, sellerID, name, description string, memberIDs []string) (*Product, error)
	ApplyDiscount(ctx context.Context, sellerID, productID string, rate decimal.Decimal) (*Product, error)
	UpdateProduct(ctx context.Context, sellerID, productID string, in ProductInput) (*Product, error)
	RemoveProduct(ctx context.Context, sellerID, productID string) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	ListSellerProducts(ctx context.Context, sellerID string) ([]*Product, error)
}
