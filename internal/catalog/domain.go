// internal/catalog/domain.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/observe"
)

var (
	// ErrNotFound reports a product lookup miss.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidQuantity reports a stock write that would violate the
	// non-negative stock invariant.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInsufficientStock reports a stock decrement larger than the
	// current stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidDiscountRate reports a discount rate outside (0, 1).
	ErrInvalidDiscountRate = errors.New("discount rate must be between 0 and 1 exclusive")
	// ErrValidation reports malformed product input.
	ErrValidation = errors.New("validation failed")
)

// Kind discriminates the three product variants. The values double as the
// `type` tag in the products document.
type Kind string

const (
	KindPlain      Kind = "product"
	KindBundle     Kind = "bundle"
	KindDiscounted Kind = "discountedProduct"
)

// bundleDiscount is the single bundle pricing policy: a bundle sells for 90%
// of the sum of its member prices.
var bundleDiscount = decimal.NewFromFloat(0.9)

// Product is a catalog entry in one of three variants.
//
// A plain product stores its own price and stock. A bundle aggregates member
// products and derives price, stock and description from them on every read.
// A discounted product wraps exactly one underlying product and derives a
// reduced price; it shares the underlying record, so stock mutations through
// the wrapper reach the original catalog entry.
type Product struct {
	ID           string
	Kind         Kind
	Name         string
	Description  string
	Price        decimal.Decimal
	Quantity     int
	SellerID     string
	InvoicePrice decimal.Decimal

	// Members holds the bundle's member products. References are shared
	// with the owning inventory, never copied.
	Members []*Product
	// Wrapped is the underlying product of a discounted entry.
	Wrapped *Product
	// DiscountRate is in (0, 1) exclusive for discounted entries.
	DiscountRate decimal.Decimal
}

// NewProduct builds a plain product.
func NewProduct(id, name, description string, price decimal.Decimal, quantity int) *Product {
	return &Product{
		ID:          id,
		Kind:        KindPlain,
		Name:        name,
		Description: description,
		Price:       price,
		Quantity:    quantity,
	}
}

// NewBundle builds a bundle aggregating the given members. A bundle with
// fewer than two members is a valid but degenerate value; catalog-facing
// bundles are held to two or more at the service layer.
func NewBundle(id, name, description string, members []*Product) *Product {
	return &Product{
		ID:          id,
		Kind:        KindBundle,
		Name:        name,
		Description: description,
		Members:     members,
	}
}

// NewDiscounted wraps an existing product with a discount rate in (0, 1)
// exclusive. The wrapper keeps the underlying product's identity: it replaces
// the wrapped entry in the owning inventory rather than coexisting with it.
func NewDiscounted(wrapped *Product, rate decimal.Decimal) (*Product, error) {
	if !rate.IsPositive() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidDiscountRate, rate)
	}
	return &Product{
		ID:           wrapped.ID,
		Kind:         KindDiscounted,
		Name:         wrapped.Name,
		Description:  wrapped.Description,
		SellerID:     wrapped.SellerID,
		InvoicePrice: wrapped.InvoicePrice,
		Wrapped:      wrapped,
		DiscountRate: rate,
	}, nil
}

// UnitPrice returns the effective selling price of one unit, derived per
// variant on every call.
func (p *Product) UnitPrice() decimal.Decimal {
	switch p.Kind {
	case KindBundle:
		sum := decimal.Zero
		for _, m := range p.Members {
			sum = sum.Add(m.UnitPrice())
		}
		return sum.Mul(bundleDiscount)
	case KindDiscounted:
		return p.Wrapped.UnitPrice().Mul(decimal.NewFromInt(1).Sub(p.DiscountRate))
	default:
		return p.Price
	}
}

// StockQuantity returns the sellable stock, derived per variant. A bundle's
// stock is the minimum member stock; an empty bundle has none.
func (p *Product) StockQuantity() int {
	switch p.Kind {
	case KindBundle:
		if len(p.Members) == 0 {
			return 0
		}
		min := p.Members[0].StockQuantity()
		for _, m := range p.Members[1:] {
			if q := m.StockQuantity(); q < min {
				min = q
			}
		}
		return min
	case KindDiscounted:
		return p.Wrapped.StockQuantity()
	default:
		return p.Quantity
	}
}

// SetStock overwrites the stock count. Negative values fail; they are never
// clamped. A discounted wrapper forwards the write to the underlying product,
// mutating the original catalog entry. Bundle stock is derived from members
// and cannot be written directly.
func (p *Product) SetStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	switch p.Kind {
	case KindBundle:
		return fmt.Errorf("%w: bundle stock is derived from its members", ErrInvalidQuantity)
	case KindDiscounted:
		return p.Wrapped.SetStock(quantity)
	default:
		p.Quantity = quantity
		return nil
	}
}

// ReduceStock decrements stock by qty, failing with ErrInsufficientStock if
// the current stock is smaller. For a bundle every member is decremented; the
// upfront minimum check makes the member decrements all-or-nothing.
func (p *Product) ReduceStock(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if p.StockQuantity() < qty {
		return fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, p.ID, p.StockQuantity(), qty)
	}
	switch p.Kind {
	case KindBundle:
		for _, m := range p.Members {
			if err := m.ReduceStock(qty); err != nil {
				return err
			}
		}
		return nil
	case KindDiscounted:
		return p.Wrapped.ReduceStock(qty)
	default:
		p.Quantity -= qty
		return nil
	}
}

// StockRecords returns the records whose stock count a decrement through p
// reaches: a plain product itself, a discounted entry its wrapped record's,
// a bundle every member's, recursively. Callers aggregating stock
// requirements across lines key by record, since bundles alias their
// members' records.
func (p *Product) StockRecords() []*Product {
	switch p.Kind {
	case KindBundle:
		var out []*Product
		for _, m := range p.Members {
			out = append(out, m.StockRecords()...)
		}
		return out
	case KindDiscounted:
		return p.Wrapped.StockRecords()
	default:
		return []*Product{p}
	}
}

// AddMember appends a product to a bundle. Derived price and stock follow on
// the next read.
func (p *Product) AddMember(m *Product) {
	p.Members = append(p.Members, m)
}

// RemoveMember removes a member by reference equality.
func (p *Product) RemoveMember(m *Product) {
	for i, existing := range p.Members {
		if existing == m {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return
		}
	}
}

// DisplayName returns the customer-facing name, annotated per variant.
func (p *Product) DisplayName() string {
	if p.Kind == KindDiscounted {
		return p.Wrapped.DisplayName() + " (discounted)"
	}
	return p.Name
}

// DisplayDescription returns the customer-facing description. Bundles
// enumerate their member names; discounted entries append the rate.
func (p *Product) DisplayDescription() string {
	switch p.Kind {
	case KindBundle:
		if len(p.Members) == 0 {
			return p.Description
		}
		names := make([]string, len(p.Members))
		for i, m := range p.Members {
			names[i] = m.DisplayName()
		}
		return p.Description + "\nIncludes: " + strings.Join(names, ", ")
	case KindDiscounted:
		pct := p.DiscountRate.Mul(decimal.NewFromInt(100))
		return p.Wrapped.DisplayDescription() + "\nDiscount: " + pct.String() + "% off"
	default:
		return p.Description
	}
}

// productJSON is the wire shape of a product record. Price and quantity are
// the derived values at save time for composite variants.
type productJSON struct {
	ID           string           `json:"id"`
	Kind         Kind             `json:"type"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Quantity     int              `json:"quantity"`
	SellerID     string           `json:"sellerId"`
	InvoicePrice decimal.Decimal  `json:"invoicePrice"`
	Members      []*Product       `json:"products,omitempty"`
	Wrapped      *Product         `json:"originalProduct,omitempty"`
	DiscountRate *decimal.Decimal `json:"discountRate,omitempty"`
}

// MarshalJSON implements json.Marshaler. Bundle records nest their member
// records; discounted records nest the original product record.
func (p *Product) MarshalJSON() ([]byte, error) {
	out := productJSON{
		ID:           p.ID,
		Kind:         p.Kind,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.UnitPrice(),
		Quantity:     p.StockQuantity(),
		SellerID:     p.SellerID,
		InvoicePrice: p.InvoicePrice,
	}
	switch p.Kind {
	case KindBundle:
		out.Members = p.Members
	case KindDiscounted:
		out.Wrapped = p.Wrapped
		rate := p.DiscountRate
		out.DiscountRate = &rate
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Records without a type tag are
// plain products.
func (p *Product) UnmarshalJSON(b []byte) error {
	var in productJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	p.ID = in.ID
	p.Kind = in.Kind
	if p.Kind == "" {
		p.Kind = KindPlain
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.SellerID = in.SellerID
	p.InvoicePrice = in.InvoicePrice
	p.Members = in.Members
	p.Wrapped = in.Wrapped
	if in.DiscountRate != nil {
		p.DiscountRate = *in.DiscountRate
	}
	return nil
}

// Inventory is one seller's ordered product collection. Every mutation
// notifies registered observers synchronously before returning. Product id
// uniqueness is not enforced; callers must avoid duplicates.
type Inventory struct {
	products  []*Product
	observers observe.List[*Inventory]

	// pendingIDs holds product ids read from disk until Rehydrate
	// re-links them to shared records.
	pendingIDs []string
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{}
}

// Products returns the products in insertion order. The slice is a copy; the
// referenced records are shared.
func (inv *Inventory) Products() []*Product {
	out := make([]*Product, len(inv.products))
	copy(out, inv.products)
	return out
}

// Len returns the number of products.
func (inv *Inventory) Len() int {
	return len(inv.products)
}

// Add appends a product and notifies observers.
func (inv *Inventory) Add(p *Product) {
	inv.products = append(inv.products, p)
	inv.observers.Notify(inv)
}

// Remove removes the product with the given id. It reports whether a product
// was removed; observers are notified only on an actual removal.
func (inv *Inventory) Remove(id string) bool {
	for i, p := range inv.products {
		if p.ID == id {
			inv.products = append(inv.products[:i], inv.products[i+1:]...)
			inv.observers.Notify(inv)
			return true
		}
	}
	return false
}

// FindByID returns the product with the given id, or nil.
func (inv *Inventory) FindByID(id string) *Product {
	for _, p := range inv.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Update replaces the product whose id matches. A miss is reported as
// ErrNotFound rather than silently ignored.
func (inv *Inventory) Update(p *Product) error {
	for i, existing := range inv.products {
		if existing.ID == p.ID {
			inv.products[i] = p
			inv.observers.Notify(inv)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
}

// Register adds an observer. Duplicate registrations are kept and notified
// once per registration.
func (inv *Inventory) Register(o observe.Observer[*Inventory]) {
	inv.observers.Register(o)
}

// Unregister removes one registration of o.
func (inv *Inventory) Unregister(o observe.Observer[*Inventory]) {
	inv.observers.Unregister(o)
}

// MarshalJSON persists the inventory as a product-id list; the records
// themselves live in the products document.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	ids := make([]string, len(inv.products))
	for i, p := range inv.products {
		ids[i] = p.ID
	}
	return json.Marshal(struct {
		Products []string `json:"products"`
	}{Products: ids})
}

// UnmarshalJSON reads the persisted id list. The inventory is unusable until
// Rehydrate resolves the ids against the loaded product records.
func (inv *Inventory) UnmarshalJSON(b []byte) error {
	var in struct {
		Products []string `json:"products"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	inv.pendingIDs = in.Products
	return nil
}

// Rehydrate re-links persisted product ids to shared records. Ids that no
// longer resolve are returned so the caller can report them.
func (inv *Inventory) Rehydrate(resolve func(id string) *Product) (missing []string) {
	inv.products = inv.products[:0]
	for _, id := range inv.pendingIDs {
		if p := resolve(id); p != nil {
			inv.products = append(inv.products, p)
		} else {
			missing = append(missing, id)
		}
	}
	inv.pendingIDs = nil
	return missing
}
