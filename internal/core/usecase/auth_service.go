package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

type AuthService struct {
	repo ports.APIKeyRepository
}

func NewAuthService(repo ports.APIKeyRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Authenticate resolves a raw API key to the merchant it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.APIKey, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.APIKey{}, ErrUnauthorized
	}

	apiKey, err := s.repo.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.APIKey{}, ErrUnauthorized
		}
		return domain.APIKey{}, err
	}
	if !apiKey.Active || apiKey.MerchantID == "" {
		return domain.APIKey{}, ErrUnauthorized
	}
	return apiKey, nil
}

type BootstrapKey struct {
	Token      string
	TenantID   string
	MerchantID string
	Name       string
	Kind       domain.AuthKind
}

// Bootstrap upserts a key supplied through deployment configuration.
func (s *AuthService) Bootstrap(ctx context.Context, key BootstrapKey) error {
	if strings.TrimSpace(key.Token) == "" {
		return fmt.Errorf("bootstrap api key: empty token")
	}
	if key.TenantID == "" {
		key.TenantID = "public"
	}
	if key.Name == "" {
		key.Name = "bootstrap"
	}
	if key.Kind == "" {
		key.Kind = domain.AuthKindAPIKey
	}
	if err := domain.ValidateKey(key.MerchantID); err != nil {
		return fmt.Errorf("bootstrap api key merchant: %w", err)
	}
	return s.repo.Upsert(ctx, domain.APIKey{
		TokenHash:  HashToken(key.Token),
		TenantID:   key.TenantID,
		MerchantID: key.MerchantID,
		Kind:       key.Kind,
		Name:       key.Name,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	})
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
