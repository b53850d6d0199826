// tests/integration/main_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/membership"
	"storefront/internal/store"
)

// newServer assembles the full HTTP surface over a store rooted at dir, the
// same wiring cmd/storefront performs.
func newServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()

	st, err := store.Open(dir, zap.NewNop())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	catalog.NewHandler(catalog.NewService(st)).Register(r)
	membership.NewHandler(membership.NewService(st)).Register(r)
	checkout.NewHandler(checkout.NewService(st, checkout.NewApproveAllProcessor())).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, req any, wantStatus int, out any) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type userDoc struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"type"`
}

type productDoc struct {
	ID       string          `json:"id"`
	Kind     string          `json:"type"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type cartDoc struct {
	Items []struct {
		ProductID string          `json:"productId"`
		Quantity  int             `json:"quantity"`
		Subtotal  decimal.Decimal `json:"subtotal"`
	} `json:"items"`
	Total decimal.Decimal `json:"total"`
	Empty bool            `json:"empty"`
}

type checkoutDoc struct {
	Outcome string          `json:"outcome"`
	Total   decimal.Decimal `json:"total"`
	Lines   []struct {
		ProductID string          `json:"productId"`
		Quantity  int             `json:"quantity"`
		Subtotal  decimal.Decimal `json:"subtotal"`
	} `json:"lines"`
}

var card = map[string]any{
	"card": map[string]string{"number": "4111111111111111", "expiration": "12/27", "cvv": "123"},
}

func TestShoppingFlow(t *testing.T) {
	srv := newServer(t, t.TempDir())

	// Register a seller
	var seller userDoc
	postJSON(t, srv.URL+"/users/register",
		map[string]string{"username": "bob", "password": "SecurePass123!", "type": "seller"},
		http.StatusCreated, &seller)
	assert.Equal(t, "seller", seller.Role)

	// Stock the shelf
	var a, b productDoc
	postJSON(t, fmt.Sprintf("%s/sellers/%s/products", srv.URL, seller.ID),
		map[string]any{"name": "Product A", "price": "10", "invoicePrice": "6", "quantity": 5},
		http.StatusCreated, &a)
	postJSON(t, fmt.Sprintf("%s/sellers/%s/products", srv.URL, seller.ID),
		map[string]any{"name": "Product B", "price": "5", "invoicePrice": "3", "quantity": 3},
		http.StatusCreated, &b)

	// Bundle the two products
	var bundle productDoc
	postJSON(t, fmt.Sprintf("%s/sellers/%s/bundles", srv.URL, seller.ID),
		map[string]any{"name": "Starter Kit", "description": "Both things.", "productIds": []string{a.ID, b.ID}},
		http.StatusCreated, &bundle)
	assert.Equal(t, "bundle", bundle.Kind)
	assert.True(t, bundle.Price.Equal(decimal.RequireFromString("13.5")), "bundle price: %s", bundle.Price)
	assert.Equal(t, 3, bundle.Quantity)

	// Register a customer and sign in
	var customer userDoc
	postJSON(t, srv.URL+"/users/register",
		map[string]string{"username": "alice", "password": "SecurePass123!", "type": "customer"},
		http.StatusCreated, &customer)
	var loggedIn userDoc
	postJSON(t, srv.URL+"/users/login",
		map[string]string{"username": "alice", "password": "SecurePass123!"},
		http.StatusOK, &loggedIn)
	assert.Equal(t, customer.ID, loggedIn.ID)

	// Fill the cart
	postJSON(t, fmt.Sprintf("%s/customers/%s/cart/items", srv.URL, customer.ID),
		map[string]any{"productId": a.ID, "quantity": 2}, http.StatusCreated, nil)
	postJSON(t, fmt.Sprintf("%s/customers/%s/cart/items", srv.URL, customer.ID),
		map[string]any{"productId": b.ID, "quantity": 1}, http.StatusCreated, nil)

	var c cartDoc
	getJSON(t, fmt.Sprintf("%s/customers/%s/cart", srv.URL, customer.ID), &c)
	require.Len(t, c.Items, 2)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("25")), "cart total: %s", c.Total)

	// Check out
	var result checkoutDoc
	postJSON(t, fmt.Sprintf("%s/customers/%s/checkout", srv.URL, customer.ID),
		card, http.StatusOK, &result)
	assert.Equal(t, "paid", result.Outcome)
	assert.True(t, result.Total.Equal(decimal.RequireFromString("25")))
	require.Len(t, result.Lines, 2)

	// Verify stock was decremented
	var updated productDoc
	getJSON(t, fmt.Sprintf("%s/products/%s", srv.URL, a.ID), &updated)
	assert.Equal(t, 3, updated.Quantity)

	// Verify the seller's books
	var finances struct {
		Costs    decimal.Decimal `json:"costs"`
		Revenues decimal.Decimal `json:"revenues"`
		Profits  decimal.Decimal `json:"profits"`
	}
	getJSON(t, fmt.Sprintf("%s/sellers/%s/finances", srv.URL, seller.ID), &finances)
	assert.True(t, finances.Costs.Equal(decimal.RequireFromString("39")), "costs: %s", finances.Costs)
	assert.True(t, finances.Revenues.Equal(decimal.RequireFromString("25")), "revenues: %s", finances.Revenues)
	assert.True(t, finances.Profits.Equal(decimal.RequireFromString("-14")), "profits: %s", finances.Profits)

	// The cart is empty afterwards; a second checkout settles nothing
	getJSON(t, fmt.Sprintf("%s/customers/%s/cart", srv.URL, customer.ID), &c)
	assert.True(t, c.Empty)

	postJSON(t, fmt.Sprintf("%s/customers/%s/checkout", srv.URL, customer.ID),
		card, http.StatusOK, &result)
	assert.Equal(t, "emptyCart", result.Outcome)
}

func TestCheckoutPreventsOverselling(t *testing.T) {
	srv := newServer(t, t.TempDir())

	var seller userDoc
	postJSON(t, srv.URL+"/users/register",
		map[string]string{"username": "bob", "password": "SecurePass123!", "type": "seller"},
		http.StatusCreated, &seller)

	// A single copy of the product
	var p productDoc
	postJSON(t, fmt.Sprintf("%s/sellers/%s/products", srv.URL, seller.ID),
		map[string]any{"name": "Last One", "price": "10", "invoicePrice": "6", "quantity": 1},
		http.StatusCreated, &p)

	// Two customers cart the same unit
	var first, second userDoc
	postJSON(t, srv.URL+"/users/register",
		map[string]string{"username": "alice", "password": "SecurePass123!", "type": "customer"},
		http.StatusCreated, &first)
	postJSON(t, srv.URL+"/users/register",
		map[string]string{"username": "carol", "password": "SecurePass123!", "type": "customer"},
		http.StatusCreated, &second)
	for _, u := range []userDoc{first, second} {
		postJSON(t, fmt.Sprintf("%s/customers/%s/cart/items", srv.URL, u.ID),
			map[string]any{"productId": p.ID, "quantity": 1}, http.StatusCreated, nil)
	}

	// Only the first checkout settles
	var result checkoutDoc
	postJSON(t, fmt.Sprintf("%s/customers/%s/checkout", srv.URL, first.ID),
		card, http.StatusOK, &result)
	assert.Equal(t, "paid", result.Outcome)

	body, _ := json.Marshal(card)
	resp, err := http.Post(fmt.Sprintf("%s/customers/%s/checkout", srv.URL, second.ID),
		"application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var updated productDoc
	getJSON(t, fmt.Sprintf("%s/products/%s", srv.URL, p.ID), &updated)
	assert.Equal(t, 0, updated.Quantity)
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	srv := newServer(t, dir)
	var seller userDoc
	postJSON(t, srv.URL+"/users/register",
		map[string]string{"username": "bob", "password": "SecurePass123!", "type": "seller"},
		http.StatusCreated, &seller)
	var p productDoc
	postJSON(t, fmt.Sprintf("%s/sellers/%s/products", srv.URL, seller.ID),
		map[string]any{"name": "Keyboard", "price": "49.99", "invoicePrice": "30", "quantity": 4},
		http.StatusCreated, &p)
	srv.Close()

	// A fresh process over the same data directory sees the same catalog.
	reopened := newServer(t, dir)
	var products []productDoc
	getJSON(t, reopened.URL+"/products", &products)
	require.Len(t, products, 1)
	assert.Equal(t, p.ID, products[0].ID)
	assert.Equal(t, 4, products[0].Quantity)

	var loggedIn userDoc
	postJSON(t, reopened.URL+"/users/login",
		map[string]string{"username": "bob", "password": "SecurePass123!"},
		http.StatusOK, &loggedIn)
	assert.Equal(t, seller.ID, loggedIn.ID)
}
