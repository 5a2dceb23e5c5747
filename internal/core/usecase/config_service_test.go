package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

type stubConfigRepo struct {
	insertFn func(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error)
	calls    int
}

func (s *stubConfigRepo) Insert(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error) {
	s.calls++
	if s.insertFn != nil {
		return s.insertFn(ctx, entry)
	}
	return entry, nil
}

func (s *stubConfigRepo) Update(_ context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error) {
	s.calls++
	return entry, nil
}

func (s *stubConfigRepo) Get(context.Context, string, string) (domain.ConfigEntry, error) {
	s.calls++
	return domain.ConfigEntry{}, domain.ErrNotFound
}

func (s *stubConfigRepo) Delete(context.Context, string, string) (bool, error) {
	s.calls++
	return true, nil
}

func TestConfigServiceCreateValidation(t *testing.T) {
	repo := &stubConfigRepo{}
	svc := NewConfigService(repo)

	_, err := svc.Create(context.Background(), domain.ConfigEntry{TenantID: "public", Key: "", Value: json.RawMessage(`1`)})
	if !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
	_, err = svc.Create(context.Background(), domain.ConfigEntry{TenantID: "public", Key: "k", Value: json.RawMessage(`{bad`)})
	if !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("repository must not be reached on invalid input, got %d calls", repo.calls)
	}
}

func TestConfigServiceCreatePassesConflictThrough(t *testing.T) {
	svc := NewConfigService(&stubConfigRepo{insertFn: func(context.Context, domain.ConfigEntry) (domain.ConfigEntry, error) {
		return domain.ConfigEntry{}, domain.ErrConflict
	}})
	_, err := svc.Create(context.Background(), domain.ConfigEntry{TenantID: "public", Key: "routing.default", Value: json.RawMessage(`"stripe"`)})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfigServiceGetAndDeleteInvalidKey(t *testing.T) {
	svc := NewConfigService(&stubConfigRepo{})
	if _, err := svc.Get(context.Background(), "public", "bad key"); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), "public", "bad key"); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}
