// internal/membership/implementation.go
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"storefront/internal/finance"
)

// Store is the catalog store surface the service depends on. The concrete
// implementation lives in internal/store and is injected at wiring time.
// Mutate holds the store's single mutex; the service runs every store access
// inside it so concurrent requests cannot interleave on the domain graph.
type Store interface {
	Mutate(fn func() error) error
	FindUser(id string) *User
	FindUserByUsername(username string) *User
	AddUser(u *User)
	SaveAll(ctx context.Context) error
}

// service implements the Service interface.
type service struct {
	store       Store
	rateLimiter *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(store Store) Service {
	return &service{
		store:       store,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 auth attempts per minute
	}
}

// Register creates a new user. Sellers start with an empty inventory and
// zeroed financials, customers with an empty cart.
func (s *service) Register(ctx context.Context, username, password string, role Role) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username must not be empty", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrValidation)
	}
	if role != RoleCustomer && role != RoleSeller {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	// Hashing is slow by construction; keep it outside the store lock.
	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *User
	err = s.store.Mutate(func() error {
		if existing := s.store.FindUserByUsername(username); existing != nil {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}

		if role == RoleSeller {
			user = NewSeller(uuid.NewString(), username)
		} else {
			user = NewCustomer(uuid.NewString(), username)
		}
		user.PasswordHash = passwordHash
		user.Salt = salt

		s.store.AddUser(user)
		if err := s.store.SaveAll(ctx); err != nil {
			return fmt.Errorf("failed to persist user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a user's credentials and returns the user if
// successful. Lookup misses and bad passwords are indistinguishable to the
// caller.
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	var user *User
	if err := s.store.Mutate(func() error {
		user = s.store.FindUserByUsername(username)
		return nil
	}); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Credentials are immutable after registration, so the verify can run
	// outside the lock.
	ok, err := verifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by id.
func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	var u *User
	err := s.store.Mutate(func() error {
		if u = s.store.FindUser(id); u == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FinancialSummary returns the seller's costs, revenues and profits as one
// consistent read.
func (s *service) FinancialSummary(ctx context.Context, sellerID string) (finance.Snapshot, error) {
	var snap finance.Snapshot
	err := s.store.Mutate(func() error {
		u := s.store.FindUser(sellerID)
		if u == nil || !u.IsSeller() {
			return fmt.Errorf("%w: seller %s", ErrNotFound, sellerID)
		}
		snap = u.Finances.Snapshot()
		return nil
	})
	if err != nil {
		return finance.Snapshot{}, err
	}
	return snap, nil
}
