// internal/membership/domain.go
package membership

import (
	"errors"

	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/finance"
)

var (
	// ErrNotFound reports a user lookup miss.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials reports a failed authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken reports a registration with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrValidation reports malformed registration input.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited reports that the auth rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Role discriminates the two user variants. The values double as the `type`
// tag in the users document.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// User is an account record. Customers own a cart; sellers own an inventory
// and financial data. Credentials are a salted Argon2id hash; the plaintext
// password of the system this models is deliberately not carried forward.
type User struct {
	ID           string             `json:"id"`
	Username     string             `json:"username"`
	PasswordHash string             `json:"passwordHash"`
	Salt         string             `json:"salt"`
	Role         Role               `json:"type"`
	Cart         *cart.Cart         `json:"cart,omitempty"`
	Inventory    *catalog.Inventory `json:"inventory,omitempty"`
	Finances     *finance.Data      `json:"financialData,omitempty"`
}

// NewCustomer builds a customer with an empty cart.
func NewCustomer(id, username string) *User {
	return &User{
		ID:       id,
		Username: username,
		Role:     RoleCustomer,
		Cart:     cart.New(),
	}
}

// NewSeller builds a seller with an empty inventory and zeroed financials.
func NewSeller(id, username string) *User {
	return &User{
		ID:        id,
		Username:  username,
		Role:      RoleSeller,
		Inventory: catalog.NewInventory(),
		Finances:  finance.NewData(),
	}
}

// IsSeller reports whether the user is a seller.
func (u *User) IsSeller() bool { return u.Role == RoleSeller }

// IsCustomer reports whether the user is a customer.
func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }

// RecordSale records revenue from selling qty units of p at its effective
// price. Costs are unaffected. Called by the checkout flow, not by the
// inventory itself.
func (u *User) RecordSale(p *catalog.Product, qty int) {
	if u.Finances == nil {
		return
	}
	u.Finances.RecordSale(p.UnitPrice().Mul(decimal.NewFromInt(int64(qty))))
}
