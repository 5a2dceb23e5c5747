package ports

import (
	"context"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

// MandateStore persists mandates. Implementations never delete rows. Every
// lookup is confined to one tenant.
type MandateStore interface {
	Insert(ctx context.Context, m domain.MandateNew) (domain.Mandate, error)
	FindByMerchantAndMandateID(ctx context.Context, merchant domain.MerchantScope, mandateID string) (domain.Mandate, error)
	FindByMerchantAndConnectorMandateID(ctx context.Context, merchant domain.MerchantScope, connectorMandateID string) (domain.Mandate, error)
	FindAllByMerchantAndCustomer(ctx context.Context, merchant domain.MerchantScope, customerID string) ([]domain.Mandate, error)
	FindAllByGlobalCustomer(ctx context.Context, tenantID, customerID string) ([]domain.Mandate, error)

	// UpdateByMerchantAndMandateID applies patch to the matching rows and
	// returns them as read back inside the same transaction. Zero matches
	// yield domain.ErrNotFound, or the Err of the first guard the existing
	// row fails.
	UpdateByMerchantAndMandateID(ctx context.Context, merchant domain.MerchantScope, mandateID string, patch domain.MandateUpdate, guards ...Guard) ([]domain.Mandate, error)
}

// Guard is an extra condition folded into an update predicate.
type Guard struct {
	Condition domain.Condition
	Err       error
}
