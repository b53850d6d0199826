// internal/cart/cart.go
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
	"storefront/internal/observe"
)

// ErrNotFound reports a cart operation addressing a product with no line in
// the cart. The source this models silently no-opped here; it is surfaced
// deliberately.
var ErrNotFound = errors.New("product not in cart")

// LineItem pairs a shared product reference with the number of units
// requested. The quantity is independent of the product's stock count.
type LineItem struct {
	Product  *catalog.Product
	Quantity int
}

// Subtotal is the line's contribution to the cart total.
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.Product.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is one customer's ordered line-item collection. Lines for the same
// product are kept separate, never merged. The total is cached and recomputed
// in full after every cart-level mutation; mutating a line through an outside
// reference bypasses the recompute, so all changes must go through the cart.
// Every mutation notifies registered observers synchronously before
// returning.
type Cart struct {
	items     []*LineItem
	total     decimal.Decimal
	observers observe.List[*Cart]

	// pending holds persisted lines until Rehydrate re-links their
	// product ids to shared records.
	pending []lineItemJSON
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Items returns the line items in insertion order. The slice is a copy; the
// line items are shared.
func (c *Cart) Items() []*LineItem {
	out := make([]*LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines, counting duplicates for the same product.
func (c *Cart) Len() int {
	return len(c.items)
}

// Total returns the cached total: the sum over all lines of unit price times
// line quantity.
func (c *Cart) Total() decimal.Decimal {
	return c.total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

func (c *Cart) recompute() {
	total := decimal.Zero
	for _, li := range c.items {
		total = total.Add(li.Subtotal())
	}
	c.total = total
}

// AddItem appends a new line for the product. An existing line for the same
// product is not merged; checking qty against stock is the caller's
// responsibility.
func (c *Cart) AddItem(p *catalog.Product, qty int) {
	c.items = append(c.items, &LineItem{Product: p, Quantity: qty})
	c.recompute()
	c.observers.Notify(c)
}

// RemoveItem removes every line referencing the product (by id).
func (c *Cart) RemoveItem(p *catalog.Product) {
	kept := c.items[:0]
	for _, li := range c.items {
		if li.Product.ID != p.ID {
			kept = append(kept, li)
		}
	}
	c.items = kept
	c.recompute()
	c.observers.Notify(c)
}

// UpdateItemQuantity sets the quantity of the first line referencing the
// product. The quantity is not validated against stock at this layer. A miss
// is reported as ErrNotFound rather than silently ignored.
func (c *Cart) UpdateItemQuantity(p *catalog.Product, qty int) error {
	for _, li := range c.items {
		if li.Product.ID == p.ID {
			li.Quantity = qty
			c.recompute()
			c.observers.Notify(c)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
}

// Clear empties the cart; the total drops to zero.
func (c *Cart) Clear() {
	c.items = nil
	c.recompute()
	c.observers.Notify(c)
}

// LineSnapshot is one cart line frozen for presentation.
type LineSnapshot struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Snapshot is a point-in-time copy of the cart. Reads that outlive the lock
// the cart was read under work on a Snapshot, never on the live lines.
type Snapshot struct {
	Items []LineSnapshot  `json:"items"`
	Total decimal.Decimal `json:"total"`
	Empty bool            `json:"empty"`
}

// Snapshot copies the current lines and total into a detached value.
func (c *Cart) Snapshot() Snapshot {
	out := Snapshot{
		Items: make([]LineSnapshot, len(c.items)),
		Total: c.total,
		Empty: len(c.items) == 0,
	}
	for i, li := range c.items {
		out.Items[i] = LineSnapshot{
			ProductID: li.Product.ID,
			Name:      li.Product.DisplayName(),
			UnitPrice: li.Product.UnitPrice(),
			Quantity:  li.Quantity,
			Subtotal:  li.Subtotal(),
		}
	}
	return out
}

// Register adds an observer. Duplicate registrations are kept and notified
// once per registration.
func (c *Cart) Register(o observe.Observer[*Cart]) {
	c.observers.Register(o)
}

// Unregister removes one registration of o.
func (c *Cart) Unregister(o observe.Observer[*Cart]) {
	c.observers.Unregister(o)
}

type lineItemJSON struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartJSON struct {
	Items []lineItemJSON `json:"items"`
}

// MarshalJSON persists lines as (product id, quantity) pairs; the product
// records live in the products document. The total is derived, not stored.
func (c *Cart) MarshalJSON() ([]byte, error) {
	out := cartJSON{Items: make([]lineItemJSON, len(c.items))}
	for i, li := range c.items {
		out.Items[i] = lineItemJSON{ProductID: li.Product.ID, Quantity: li.Quantity}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the persisted lines. The cart is unusable until
// Rehydrate resolves the product ids against the loaded records.
func (c *Cart) UnmarshalJSON(b []byte) error {
	var in cartJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	c.pending = in.Items
	return nil
}

// Rehydrate re-links persisted lines to shared product records and recomputes
// the total. Lines whose product id no longer resolves are dropped and their
// ids returned so the caller can report them.
func (c *Cart) Rehydrate(resolve func(id string) *catalog.Product) (missing []string) {
	c.items = c.items[:0]
	for _, line := range c.pending {
		if p := resolve(line.ProductID); p != nil {
			c.items = append(c.items, &LineItem{Product: p, Quantity: line.Quantity})
		} else {
			missing = append(missing, line.ProductID)
		}
	}
	c.pending = nil
	c.recompute()
	return missing
}
