package httpapi

import (
	"context"
	"net/http"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

type configResponse struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type configValueRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *Handler) createConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.Config
	if _, err := decodeBody(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}
	entry := domain.ConfigEntry{TenantID: apiKeyFrom(r.Context()).TenantID, Key: req.Key, Value: req.Value}

	created, err := observe(r, req, func(ctx context.Context) (domain.ConfigEntry, error) {
		return h.configs.Create(ctx, entry)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, toConfigResponse(created))
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	tenantID := apiKeyFrom(r.Context()).TenantID

	entry, err := observe(r, map[string]string{"key": key}, func(ctx context.Context) (domain.ConfigEntry, error) {
		return h.configs.Get(ctx, tenantID, key)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toConfigResponse(entry))
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req configValueRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}
	update := domain.ConfigUpdate{Key: key, Value: []byte(req.Value)}
	entry := domain.ConfigEntry{TenantID: apiKeyFrom(r.Context()).TenantID, Key: key, Value: []byte(req.Value)}

	updated, err := observe(r, update, func(ctx context.Context) (domain.ConfigEntry, error) {
		return h.configs.Update(ctx, entry)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toConfigResponse(updated))
}

func (h *Handler) deleteConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	tenantID := apiKeyFrom(r.Context()).TenantID

	deleted, err := observe(r, map[string]string{"key": key}, func(ctx context.Context) (bool, error) {
		return h.configs.Delete(ctx, tenantID, key)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"deleted": deleted})
}

func toConfigResponse(entry domain.ConfigEntry) configResponse {
	return configResponse{
		Key:       entry.Key,
		Value:     json.RawMessage(entry.Value),
		CreatedAt: entry.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: entry.UpdatedAt.UTC().Format(timeFormat),
	}
}
