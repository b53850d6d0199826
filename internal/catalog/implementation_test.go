// internal/catalog/implementation_test.go
package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/finance"
)

type fakeStore struct {
	mu       sync.Mutex
	products []*Product
	inv      *Inventory
	fin      *finance.Data
	sellerID string
	saves    int
}

func (f *fakeStore) Mutate(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn()
}

func newFakeStore(sellerID string) *fakeStore {
	return &fakeStore{
		inv:      NewInventory(),
		fin:      finance.NewData(),
		sellerID: sellerID,
	}
}

func (f *fakeStore) Products() []*Product {
	out := make([]*Product, len(f.products))
	copy(out, f.products)
	return out
}

func (f *fakeStore) FindProduct(id string) *Product {
	for _, p := range f.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakeStore) AddProduct(p *Product) { f.products = append(f.products, p) }

func (f *fakeStore) ReplaceProduct(p *Product) bool {
	for i, existing := range f.products {
		if existing.ID == p.ID {
			f.products[i] = p
			return true
		}
	}
	return false
}

func (f *fakeStore) RemoveProduct(id string) bool {
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return true
		}
	}
	return false
}

func (f *fakeStore) SellerAssets(sellerID string) (*Inventory, *finance.Data) {
	if sellerID != f.sellerID {
		return nil, nil
	}
	return f.inv, f.fin
}

func (f *fakeStore) SaveAll(ctx context.Context) error {
	f.saves++
	return nil
}

func input(t *testing.T, name, price, invoice string, qty int) ProductInput {
	t.Helper()
	return ProductInput{
		Name:         name,
		Price:        dec(t, price),
		InvoicePrice: dec(t, invoice),
		Quantity:     qty,
	}
}

func TestAddProductRecordsPurchaseCost(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "49.99", "30", 4))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "seller1", p.SellerID)
	assert.Same(t, p, store.inv.FindByID(p.ID))
	assert.Same(t, p, store.FindProduct(p.ID))
	assertDecimal(t, "120", store.fin.Costs())
	assert.Equal(t, 1, store.saves)
}

func TestAddProductValidation(t *testing.T) {
	svc := NewService(newFakeStore("seller1"))
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "seller1", input(t, "", "10", "5", 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "0", "5", 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "10", "-1", 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "10", "5", -1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddProduct(ctx, "ghost", input(t, "Keyboard", "10", "5", 1))
	assert.ErrorIs(t, err, ErrSellerNotFound)
}

func TestAddBundle(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	a, err := svc.AddProduct(ctx, "seller1", input(t, "A", "10", "5", 5))
	require.NoError(t, err)
	b, err := svc.AddProduct(ctx, "seller1", input(t, "B", "20", "10", 3))
	require.NoError(t, err)

	bundle, err := svc.AddBundle(ctx, "seller1", "Kit", "Both things.", []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, KindBundle, bundle.Kind)
	assertDecimal(t, "27", bundle.UnitPrice())
	assert.Equal(t, 3, bundle.StockQuantity())

	// Members are shared with the inventory, not copied.
	require.NoError(t, a.SetStock(1))
	assert.Equal(t, 1, bundle.StockQuantity())
}

func TestAddBundleRequiresTwoMembers(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	a, err := svc.AddProduct(ctx, "seller1", input(t, "A", "10", "5", 5))
	require.NoError(t, err)

	_, err = svc.AddBundle(ctx, "seller1", "Kit", "", []string{a.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddBundle(ctx, "seller1", "Kit", "", []string{a.ID, "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyDiscountReplacesEntry(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "10", "5", 4))
	require.NoError(t, err)

	d, err := svc.ApplyDiscount(ctx, "seller1", p.ID, dec(t, "0.25"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, d.ID)
	assertDecimal(t, "7.5", d.UnitPrice())

	// The wrapper replaces the plain entry in inventory and catalog alike.
	assert.Same(t, d, store.inv.FindByID(p.ID))
	assert.Same(t, d, store.FindProduct(p.ID))
	assert.Same(t, p, d.Wrapped)

	_, err = svc.ApplyDiscount(ctx, "seller1", p.ID, dec(t, "1.5"))
	assert.ErrorIs(t, err, ErrInvalidDiscountRate)

	_, err = svc.ApplyDiscount(ctx, "seller1", "ghost", dec(t, "0.25"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "10", "5", 4))
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, "seller1", p.ID, input(t, "Keyboard v2", "12", "6", 7))
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Keyboard v2", updated.Name)
	assert.Same(t, updated, store.FindProduct(p.ID))

	_, err = svc.UpdateProduct(ctx, "seller1", "ghost", input(t, "X", "1", "1", 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveProduct(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, "seller1", input(t, "Keyboard", "10", "5", 4))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveProduct(ctx, "seller1", p.ID))
	assert.Nil(t, store.FindProduct(p.ID))
	assert.Equal(t, 0, store.inv.Len())

	err = svc.RemoveProduct(ctx, "seller1", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListings(t *testing.T) {
	store := newFakeStore("seller1")
	svc := NewService(store)
	ctx := context.Background()

	a, err := svc.AddProduct(ctx, "seller1", input(t, "A", "10", "5", 5))
	require.NoError(t, err)
	b, err := svc.AddProduct(ctx, "seller1", input(t, "B", "20", "10", 3))
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*Product{a, b}, all)

	mine, err := svc.ListSellerProducts(ctx, "seller1")
	require.NoError(t, err)
	assert.Equal(t, []*Product{a, b}, mine)

	got, err := svc.GetProduct(ctx, b.ID)
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = svc.GetProduct(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListSellerProducts(ctx, "ghost")
	assert.ErrorIs(t, err, ErrSellerNotFound)
}
