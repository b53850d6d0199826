// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/finance"
	"storefront/internal/membership"
)

const (
	usersFile    = "users.json"
	productsFile = "products.json"
)

// Store is the catalog store: every user and every product, loaded from two
// flat JSON documents at startup and rewritten wholesale after each mutating
// operation. It is constructed once at process start and injected into every
// service that needs it.
//
// One mutex serializes all access to the domain graph. Services run every
// operation through Mutate, so cart, inventory, product and finance mutations
// and the observer fan-out they trigger all happen under the same lock that
// guards the save path. The individual accessors do not lock on their own;
// callers coordinate through Mutate. There is no transactional guarantee
// across the two documents; a crash between the two writes can leave them of
// different ages, which is acceptable for a single-process store.
type Store struct {
	mu       sync.Mutex
	dir      string
	users    []*membership.User
	products []*catalog.Product
	log      *zap.Logger
	tracer   trace.Tracer
}

// Open loads the two documents from dir. A missing file is an empty
// collection, not an error; the first save creates it.
func Open(dir string, log *zap.Logger) (*Store, error) {
	s := &Store{
		dir:    dir,
		log:    log,
		tracer: otel.Tracer("storefront/store"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	if err := readDocument(filepath.Join(s.dir, productsFile), &s.products); err != nil {
		return fmt.Errorf("failed to load products document: %w", err)
	}
	if err := readDocument(filepath.Join(s.dir, usersFile), &s.users); err != nil {
		return fmt.Errorf("failed to load users document: %w", err)
	}
	s.rehydrate()
	s.log.Info("catalog store loaded",
		zap.Int("users", len(s.users)),
		zap.Int("products", len(s.products)),
	)
	return nil
}

func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// rehydrate re-links persisted id references to shared records so that the
// loaded graph keeps the live graph's sharing semantics: bundle members point
// at the top-level entries they were saved from, seller inventories and
// customer carts resolve against the products document.
func (s *Store) rehydrate() {
	index := make(map[string]*catalog.Product, len(s.products))
	for _, p := range s.products {
		if _, ok := index[p.ID]; !ok {
			index[p.ID] = p
		}
	}
	resolve := func(id string) *catalog.Product { return index[id] }

	for _, p := range s.products {
		if p.Kind != catalog.KindBundle {
			continue
		}
		for i, m := range p.Members {
			if top := index[m.ID]; top != nil {
				p.Members[i] = top
			}
		}
	}

	for _, u := range s.users {
		switch u.Role {
		case membership.RoleSeller:
			if u.Inventory == nil {
				u.Inventory = catalog.NewInventory()
			}
			if u.Finances == nil {
				u.Finances = finance.NewData()
			}
			if missing := u.Inventory.Rehydrate(resolve); len(missing) > 0 {
				s.log.Warn("dropped unresolvable inventory entries",
					zap.String("seller", u.ID),
					zap.Strings("productIds", missing),
				)
			}
		case membership.RoleCustomer:
			if u.Cart == nil {
				u.Cart = cart.New()
			}
			if missing := u.Cart.Rehydrate(resolve); len(missing) > 0 {
				s.log.Warn("dropped unresolvable cart lines",
					zap.String("customer", u.ID),
					zap.Strings("productIds", missing),
				)
			}
		}
	}
}

// Mutate runs fn while holding the store mutex. Every service-level operation
// on domain state runs through here, including the observer fan-out it
// triggers and the SaveAll that persists it, so concurrent HTTP requests
// serialize on one lock.
func (s *Store) Mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// SaveAll rewrites both documents in full. Errors surface to the caller as
// recoverable; the in-memory state stays authoritative either way. Services
// call it inside Mutate, so it takes no lock of its own.
func (s *Store) SaveAll(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "store.saveAll")
	defer span.End()

	if err := writeDocument(filepath.Join(s.dir, productsFile), s.products); err != nil {
		return fmt.Errorf("failed to save products document: %w", err)
	}
	if err := writeDocument(filepath.Join(s.dir, usersFile), s.users); err != nil {
		return fmt.Errorf("failed to save users document: %w", err)
	}

	span.SetAttributes(
		attribute.Int("store.users", len(s.users)),
		attribute.Int("store.products", len(s.products)),
	)
	s.log.Debug("catalog store saved",
		zap.Int("users", len(s.users)),
		zap.Int("products", len(s.products)),
	)
	return nil
}

// writeDocument writes v to path via a temp file and rename, so a failed
// write never truncates the previous document.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Users returns all user records in document order.
func (s *Store) Users() []*membership.User {
	out := make([]*membership.User, len(s.users))
	copy(out, s.users)
	return out
}

// Products returns all product records in document order.
func (s *Store) Products() []*catalog.Product {
	out := make([]*catalog.Product, len(s.products))
	copy(out, s.products)
	return out
}

// AddUser appends a user record.
func (s *Store) AddUser(u *membership.User) {
	s.users = append(s.users, u)
}

// FindUser returns the user with the given id, or nil.
func (s *Store) FindUser(id string) *membership.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// FindUserByUsername returns the user with the given username, or nil.
func (s *Store) FindUserByUsername(username string) *membership.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// FindSeller returns the seller with the given id, or nil if the id is
// absent or names a non-seller.
func (s *Store) FindSeller(id string) *membership.User {
	if u := s.FindUser(id); u != nil && u.IsSeller() {
		return u
	}
	return nil
}

// FindCustomer returns the customer with the given id, or nil if the id is
// absent or names a non-customer.
func (s *Store) FindCustomer(id string) *membership.User {
	if u := s.FindUser(id); u != nil && u.IsCustomer() {
		return u
	}
	return nil
}

// SellerAssets returns the inventory and financial data owned by the seller,
// or nil if no such seller exists.
func (s *Store) SellerAssets(sellerID string) (*catalog.Inventory, *finance.Data) {
	u := s.FindUser(sellerID)
	if u == nil || !u.IsSeller() {
		return nil, nil
	}
	return u.Inventory, u.Finances
}

// AddProduct appends a product record.
func (s *Store) AddProduct(p *catalog.Product) {
	s.products = append(s.products, p)
}

// FindProduct returns the product with the given id, or nil.
func (s *Store) FindProduct(id string) *catalog.Product {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ReplaceProduct swaps the record with the same id, keeping document order.
// It reports whether a record was replaced.
func (s *Store) ReplaceProduct(p *catalog.Product) bool {
	for i, existing := range s.products {
		if existing.ID == p.ID {
			s.products[i] = p
			return true
		}
	}
	return false
}

// RemoveProduct removes the record with the given id. It reports whether a
// record was removed.
func (s *Store) RemoveProduct(id string) bool {
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return true
		}
	}
	return false
}
