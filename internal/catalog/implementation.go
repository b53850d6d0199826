// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/finance"
)

// ErrSellerNotFound reports a seller lookup miss.
var ErrSellerNotFound = errors.New("seller not found")

// Store is the catalog store surface the service depends on. The concrete
// implementation lives in internal/store and is injected at wiring time.
// Mutate holds the store's single mutex; the service runs every operation
// inside it so concurrent requests cannot interleave on the domain graph.
type Store interface {
	Mutate(fn func() error) error
	Products() []*Product
	FindProduct(id string) *Product
	AddProduct(p *Product)
	ReplaceProduct(p *Product) bool
	RemoveProduct(id string) bool
	// SellerAssets returns the inventory and financial data owned by the
	// seller, or nil if no such seller exists.
	SellerAssets(sellerID string) (*Inventory, *finance.Data)
	SaveAll(ctx context.Context) error
}

// service implements the Service interface.
type service struct {
	store Store
}

// NewService creates a new catalog service instance.
func NewService(store Store) Service {
	return &service{store: store}
}

func validateInput(in ProductInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrValidation, in.Price)
	}
	if in.InvoicePrice.IsNegative() {
		return fmt.Errorf("%w: invoice price must not be negative, got %s", ErrValidation, in.InvoicePrice)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative, got %d", ErrValidation, in.Quantity)
	}
	return nil
}

// AddProduct creates a plain product in the seller's inventory, records the
// purchase cost (invoice price times quantity) and persists the catalog.
func (s *service) AddProduct(ctx context.Context, sellerID string, in ProductInput) (*Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var p *Product
	err := s.store.Mutate(func() error {
		inv, fin := s.store.SellerAssets(sellerID)
		if inv == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}

		p = NewProduct(uuid.NewString(), in.Name, in.Description, in.Price, in.Quantity)
		p.SellerID = sellerID
		p.InvoicePrice = in.InvoicePrice

		inv.Add(p)
		s.store.AddProduct(p)
		fin.RecordPurchase(in.InvoicePrice.Mul(decimal.NewFromInt(int64(in.Quantity))))

		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AddBundle creates a bundle over existing products of the seller. Member
// references are shared with the inventory, so later stock changes flow into
// the bundle's derived fields.
func (s *service) AddBundle(ctx context.Context, sellerID, name, description string, memberIDs []string) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if len(memberIDs) < 2 {
		return nil, fmt.Errorf("%w: a bundle needs at least two members, got %d", ErrValidation, len(memberIDs))
	}
	var bundle *Product
	err := s.store.Mutate(func() error {
		inv, _ := s.store.SellerAssets(sellerID)
		if inv == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}

		members := make([]*Product, 0, len(memberIDs))
		for _, id := range memberIDs {
			m := inv.FindByID(id)
			if m == nil {
				return fmt.Errorf("%w: bundle member %s", ErrNotFound, id)
			}
			members = append(members, m)
		}

		bundle = NewBundle(uuid.NewString(), name, description, members)
		bundle.SellerID = sellerID

		inv.Add(bundle)
		s.store.AddProduct(bundle)

		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist bundle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// ApplyDiscount wraps one of the seller's products with a discount rate. The
// discounted entry replaces the wrapped product in both the inventory and the
// products document; the wrapped record stays reachable through it.
func (s *service) ApplyDiscount(ctx context.Context, sellerID, productID string, rate decimal.Decimal) (*Product, error) {
	var discounted *Product
	err := s.store.Mutate(func() error {
		inv, _ := s.store.SellerAssets(sellerID)
		if inv == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}
		p := inv.FindByID(productID)
		if p == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, productID)
		}

		var err error
		discounted, err = NewDiscounted(p, rate)
		if err != nil {
			return err
		}
		if err := inv.Update(discounted); err != nil {
			return err
		}
		s.store.ReplaceProduct(discounted)

		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist discount: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return discounted, nil
}

// UpdateProduct replaces the product with the given id by a plain product
// built from the input. A miss is reported, not swallowed.
func (s *service) UpdateProduct(ctx context.Context, sellerID, productID string, in ProductInput) (*Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var updated *Product
	err := s.store.Mutate(func() error {
		inv, _ := s.store.SellerAssets(sellerID)
		if inv == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}

		updated = NewProduct(productID, in.Name, in.Description, in.Price, in.Quantity)
		updated.SellerID = sellerID
		updated.InvoicePrice = in.InvoicePrice

		if err := inv.Update(updated); err != nil {
			return err
		}
		s.store.ReplaceProduct(updated)

		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist product update: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveProduct removes a product from the seller's inventory and the
// products document.
func (s *service) RemoveProduct(ctx context.Context, sellerID, productID string) error {
	return s.store.Mutate(func() error {
		inv, _ := s.store.SellerAssets(sellerID)
		if inv == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}
		if !inv.Remove(productID) {
			return fmt.Errorf("%w: %s", ErrNotFound, productID)
		}
		s.store.RemoveProduct(productID)

		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist product removal: %w", err)
		}
		return nil
	})
}

// GetProduct retrieves a product from the catalog by its id.
func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p *Product
	err := s.store.Mutate(func() error {
		if p = s.store.FindProduct(id); p == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns every product in the catalog, in document order.
func (s *service) ListProducts(ctx context.Context) ([]*Product, error) {
	var products []*Product
	err := s.store.Mutate(func() error {
		products = s.store.Products()
		return nil
	})
	return products, err
}

// ListSellerProducts returns the seller's inventory in insertion order.
func (s *service) ListSellerProducts(ctx context.Context, sellerID string) ([]*Product, error) {
	var products []*Product
	err := s.store.Mutate(func() error {
		inv, _ := s.store.SellerAssets(sellerID)
		if inv == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}
		products = inv.Products()
		return nil
	})
	return products, err
}
