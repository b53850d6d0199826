// internal/checkout/implementation.go
package checkout

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/membership"
)

// Store is the catalog store surface the service depends on. The concrete
// implementation lives in internal/store and is injected at wiring time.
// Mutate holds the store's single mutex; the service runs every operation
// inside it so concurrent requests cannot interleave on the domain graph.
type Store interface {
	Mutate(fn func() error) error
	FindCustomer(id string) *membership.User
	FindSeller(id string) *membership.User
	FindProduct(id string) *catalog.Product
	SaveAll(ctx context.Context) error
}

// service implements the Service interface.
type service struct {
	store    Store
	payments PaymentProcessor
	tracer   trace.Tracer
}

// NewService creates a new checkout service instance.
func NewService(store Store, payments PaymentProcessor) Service {
	return &service{
		store:    store,
		payments: payments,
		tracer:   otel.Tracer("storefront/checkout"),
	}
}

func (s *service) customerCart(customerID string) (*membership.User, *cart.Cart, error) {
	customer := s.store.FindCustomer(customerID)
	if customer == nil {
		return nil, nil, fmt.Errorf("%w: customer %s", membership.ErrNotFound, customerID)
	}
	return customer, customer.Cart, nil
}

// GetCart returns a point-in-time copy of the customer's cart.
func (s *service) GetCart(ctx context.Context, customerID string) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := s.store.Mutate(func() error {
		_, c, err := s.customerCart(customerID)
		if err != nil {
			return err
		}
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// AddItem appends a new line to the customer's cart. The quantity must be
// positive and no larger than the product's current stock; the cart itself
// does not validate against stock, so this layer does.
func (s *service) AddItem(ctx context.Context, customerID, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", catalog.ErrInvalidQuantity, qty)
	}
	return s.store.Mutate(func() error {
		_, c, err := s.customerCart(customerID)
		if err != nil {
			return err
		}
		p := s.store.FindProduct(productID)
		if p == nil {
			return fmt.Errorf("%w: %s", catalog.ErrNotFound, productID)
		}
		if p.StockQuantity() < qty {
			return fmt.Errorf("%w: product %s has %d, requested %d", catalog.ErrInsufficientStock, productID, p.StockQuantity(), qty)
		}

		c.AddItem(p, qty)
		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
		return nil
	})
}

// RemoveItem removes every cart line referencing the product.
func (s *service) RemoveItem(ctx context.Context, customerID, productID string) error {
	return s.store.Mutate(func() error {
		_, c, err := s.customerCart(customerID)
		if err != nil {
			return err
		}
		p := s.store.FindProduct(productID)
		if p == nil {
			return fmt.Errorf("%w: %s", catalog.ErrNotFound, productID)
		}

		c.RemoveItem(p)
		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
		return nil
	})
}

// UpdateItemQuantity sets the quantity of the first matching cart line. Stock
// is not re-checked here; checkout re-validates it anyway.
func (s *service) UpdateItemQuantity(ctx context.Context, customerID, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", catalog.ErrInvalidQuantity, qty)
	}
	return s.store.Mutate(func() error {
		_, c, err := s.customerCart(customerID)
		if err != nil {
			return err
		}
		p := s.store.FindProduct(productID)
		if p == nil {
			return fmt.Errorf("%w: %s", catalog.ErrNotFound, productID)
		}

		if err := c.UpdateItemQuantity(p, qty); err != nil {
			return err
		}
		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
		return nil
	})
}

// ClearCart empties the customer's cart.
func (s *service) ClearCart(ctx context.Context, customerID string) error {
	return s.store.Mutate(func() error {
		_, c, err := s.customerCart(customerID)
		if err != nil {
			return err
		}
		c.Clear()
		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
		return nil
	})
}

// Checkout settles the customer's cart in one linear pass: validate every
// line and resolve every seller before anything is mutated, authorize the
// payment, then decrement stock, record each seller's revenue, clear the cart
// and persist. An empty cart is reported as an outcome, with no mutation. The
// whole flow runs under the store mutex, so no other request can change stock
// between the validation and the decrements.
//
// Stock is re-validated here even though add-to-cart already checked it:
// other checkouts may have depleted it since. Requirements are aggregated
// over the underlying stock records, not cart lines: a bundle decrements its
// members, so a cart holding a bundle and one of its members separately must
// count both claims against the member's single record. A failing cart
// leaves no stock decremented.
func (s *service) Checkout(ctx context.Context, customerID string, card PaymentCard) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "checkout",
		trace.WithAttributes(attribute.String("customer.id", customerID)))
	defer span.End()

	var result *Result
	err := s.store.Mutate(func() error {
		_, c, err := s.customerCart(customerID)
		if err != nil {
			return err
		}
		if c.Empty() {
			span.AddEvent("empty cart")
			result = &Result{Outcome: OutcomeEmptyCart, Total: c.Total()}
			return nil
		}

		lines := c.Items()

		required := map[*catalog.Product]int{}
		for _, li := range lines {
			for _, rec := range li.Product.StockRecords() {
				required[rec] += li.Quantity
			}
		}
		for rec, qty := range required {
			if rec.StockQuantity() < qty {
				return fmt.Errorf("%w: product %s has %d, cart requests %d",
					catalog.ErrInsufficientStock, rec.ID, rec.StockQuantity(), qty)
			}
		}

		sellers := make(map[string]*membership.User)
		for _, li := range lines {
			if _, ok := sellers[li.Product.SellerID]; !ok {
				seller := s.store.FindSeller(li.Product.SellerID)
				if seller == nil {
					return fmt.Errorf("%w: seller %s", membership.ErrNotFound, li.Product.SellerID)
				}
				sellers[li.Product.SellerID] = seller
			}
		}

		total := c.Total()
		if err := s.payments.Authorize(ctx, card, total); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
		}

		charged := make([]ChargedLine, 0, len(lines))
		for _, li := range lines {
			if err := li.Product.ReduceStock(li.Quantity); err != nil {
				return fmt.Errorf("failed to decrement stock for %s: %w", li.Product.ID, err)
			}
			sellers[li.Product.SellerID].RecordSale(li.Product, li.Quantity)
			charged = append(charged, ChargedLine{
				ProductID: li.Product.ID,
				Name:      li.Product.DisplayName(),
				Quantity:  li.Quantity,
				UnitPrice: li.Product.UnitPrice(),
				Subtotal:  li.Subtotal(),
			})
		}

		c.Clear()

		// One full-document save covers every mutated product, seller and
		// the customer's cleared cart.
		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist checkout: %w", err)
		}

		span.SetAttributes(
			attribute.String("checkout.total", total.String()),
			attribute.Int("checkout.lines", len(charged)),
		)
		result = &Result{Outcome: OutcomePaid, Total: total, Lines: charged}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
