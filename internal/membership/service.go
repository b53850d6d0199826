// internal/membership/service.go
package membership

import (
	"context"

	"storefront/internal/finance"
)

// Service defines the interface for the membership service.
type Service interface {
	Register(ctx context.Context, username, password string, role Role) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	FinancialSummary(ctx context.Context, sellerID string) (finance.Snapshot, error)
}
