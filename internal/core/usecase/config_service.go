package usecase

import (
	"context"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
)

// ConfigService manages tenant-scoped configuration keys.
type ConfigService struct {
	repo ports.ConfigRepository
}

func NewConfigService(repo ports.ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

// Create inserts a new key; an existing key yields domain.ErrConflict.
func (s *ConfigService) Create(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error) {
	if err := entry.Validate(); err != nil {
		return domain.ConfigEntry{}, err
	}
	return s.repo.Insert(ctx, entry)
}

// Update replaces the value of an existing key; a missing key yields
// domain.ErrNotFound.
func (s *ConfigService) Update(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error) {
	if err := entry.Validate(); err != nil {
		return domain.ConfigEntry{}, err
	}
	return s.repo.Update(ctx, entry)
}

func (s *ConfigService) Get(ctx context.Context, tenantID, key string) (domain.ConfigEntry, error) {
	if err := domain.ValidateKey(key); err != nil {
		return domain.ConfigEntry{}, err
	}
	return s.repo.Get(ctx, tenantID, key)
}

func (s *ConfigService) Delete(ctx context.Context, tenantID, key string) (bool, error) {
	if err := domain.ValidateKey(key); err != nil {
		return false, err
	}
	return s.repo.Delete(ctx, tenantID, key)
}
