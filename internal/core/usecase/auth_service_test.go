package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

type stubAPIKeyRepo struct {
	findFn   func(ctx context.Context, tokenHash string) (domain.APIKey, error)
	upserted []domain.APIKey
}

func (s *stubAPIKeyRepo) FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error) {
	if s.findFn != nil {
		return s.findFn(ctx, tokenHash)
	}
	return domain.APIKey{}, domain.ErrNotFound
}

func (s *stubAPIKeyRepo) Upsert(_ context.Context, key domain.APIKey) error {
	s.upserted = append(s.upserted, key)
	return nil
}

func TestAuthServiceAuthenticateSuccess(t *testing.T) {
	repo := &stubAPIKeyRepo{findFn: func(_ context.Context, tokenHash string) (domain.APIKey, error) {
		if tokenHash != HashToken("token-1") {
			t.Fatalf("unexpected token hash: %s", tokenHash)
		}
		return domain.APIKey{TenantID: "public", MerchantID: "merchant-a", Active: true, CreatedAt: time.Now()}, nil
	}}

	svc := NewAuthService(repo)
	key, err := svc.Authenticate(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if key.MerchantID != "merchant-a" {
		t.Fatalf("expected merchant-a, got %s", key.MerchantID)
	}
	if got := key.AuthType().Kind; got != domain.AuthKindAPIKey {
		t.Fatalf("expected api_key auth kind, got %s", got)
	}
}

func TestAuthServiceAuthenticateUnauthorized(t *testing.T) {
	svc := NewAuthService(&stubAPIKeyRepo{})
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "unknown"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown token, got %v", err)
	}
}

func TestAuthServiceRejectsInactiveKey(t *testing.T) {
	svc := NewAuthService(&stubAPIKeyRepo{findFn: func(context.Context, string) (domain.APIKey, error) {
		return domain.APIKey{MerchantID: "m1", Active: false}, nil
	}})
	if _, err := svc.Authenticate(context.Background(), "t"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthServiceBootstrapDefaults(t *testing.T) {
	repo := &stubAPIKeyRepo{}
	svc := NewAuthService(repo)
	if err := svc.Bootstrap(context.Background(), BootstrapKey{Token: "secret", MerchantID: "m1"}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserted))
	}
	got := repo.upserted[0]
	if got.TokenHash != HashToken("secret") || got.TenantID != "public" || got.Name != "bootstrap" || !got.Active {
		t.Fatalf("unexpected bootstrap key: %+v", got)
	}

	if err := svc.Bootstrap(context.Background(), BootstrapKey{Token: "secret"}); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid merchant, got %v", err)
	}
}
