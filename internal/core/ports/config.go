package ports

import (
	"context"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

type ConfigRepository interface {
	Insert(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error)
	Update(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error)
	Get(ctx context.Context, tenantID, key string) (domain.ConfigEntry, error)
	Delete(ctx context.Context, tenantID, key string) (bool, error)
}
