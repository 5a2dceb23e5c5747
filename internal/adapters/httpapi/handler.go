package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const (
	timeFormat              = "2006-01-02T15:04:05.999999Z07:00"
	apiKeyCtxKey     ctxKey = "api_key"
	eventScopeCtxKey ctxKey = "event_scope"
	maxJSONBodySize         = 1 << 20
)

// EventPublisher accepts finished api events. It must not block.
type EventPublisher interface {
	Publish(event domain.ApiEvent)
}

type Services struct {
	Mandates *usecase.MandateService
	Configs  *usecase.ConfigService
	Auth     *usecase.AuthService
	Builder  *usecase.EventBuilder
	Events   EventPublisher
	// Metrics renders the text exposition served on /metrics.
	Metrics func() string
	// InfraComponents is attached to every api event.
	InfraComponents map[string]any
}

type Handler struct {
	mandates *usecase.MandateService
	configs  *usecase.ConfigService
	auth     *usecase.AuthService
	builder  *usecase.EventBuilder
	events   EventPublisher
	metrics  func() string
	infra    map[string]any
}

func NewHandler(s Services) *Handler {
	builder := s.Builder
	if builder == nil {
		builder = usecase.NewEventBuilder(nil)
	}
	return &Handler{
		mandates: s.Mandates,
		configs:  s.Configs,
		auth:     s.Auth,
		builder:  builder,
		events:   s.Events,
		metrics:  s.Metrics,
		infra:    s.InfraComponents,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/metrics", h.serveMetrics)

	r.Method(http.MethodPost, "/v1/mandates", h.api(domain.FlowMandatesCreate, h.createMandate))
	r.Method(http.MethodGet, "/v1/mandates/{mandate_id}", h.api(domain.FlowMandatesRetrieve, h.getMandate))
	r.Method(http.MethodPatch, "/v1/mandates/{mandate_id}", h.api(domain.FlowMandatesUpdate, h.updateMandate))
	r.Method(http.MethodPost, "/v1/mandates/{mandate_id}/revoke", h.api(domain.FlowMandatesRevoke, h.revokeMandate))
	r.Method(http.MethodGet, "/v1/mandates/connector/{connector_mandate_id}", h.api(domain.FlowMandatesRetrieveByConnectorID, h.getMandateByConnectorID))
	r.Method(http.MethodGet, "/v1/customers/{customer_id}/mandates", h.api(domain.FlowMandatesList, h.listCustomerMandates))
	r.Method(http.MethodGet, "/v1/global-customers/{customer_id}/mandates", h.api(domain.FlowMandatesListByGlobalCustomer, h.listGlobalCustomerMandates))
	r.Method(http.MethodPost, "/v1/connectors/{connector}/mandates/{mandate_id}/registration", h.api(domain.FlowMandatesConnectorCallback, h.registerConnectorMandate))

	r.Method(http.MethodPost, "/v1/configs", h.api(domain.FlowConfigKeyCreate, h.createConfig))
	r.Method(http.MethodGet, "/v1/configs/{key}", h.api(domain.FlowConfigKeyFetch, h.getConfig))
	r.Method(http.MethodPut, "/v1/configs/{key}", h.api(domain.FlowConfigKeyUpdate, h.updateConfig))
	r.Method(http.MethodDelete, "/v1/configs/{key}", h.api(domain.FlowConfigKeyDelete, h.deleteConfig))

	return r
}

// api wraps an authenticated route with api event capture for flow.
func (h *Handler) api(flow domain.Flow, fn http.HandlerFunc) http.Handler {
	return h.captureEvents(flow, h.requireAPIKey(fn))
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) serveMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	if h.metrics != nil {
		_, _ = io.WriteString(w, h.metrics())
	}
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			token = strings.TrimSpace(r.Header.Get("api-key"))
		}
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				fail(w, r, http.StatusUnauthorized, "unauthorized", err)
				return
			}
			log.Error().Err(err).Msg("authenticate api key")
			fail(w, r, http.StatusInternalServerError, "internal server error", err)
			return
		}

		if sc := scopeFrom(r.Context()); sc != nil {
			sc.authenticated(apiKey)
		}
		ctx := context.WithValue(r.Context(), apiKeyCtxKey, apiKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func apiKeyFrom(ctx context.Context) domain.APIKey {
	key, _ := ctx.Value(apiKeyCtxKey).(domain.APIKey)
	return key
}

// merchantScope is the tenant and merchant the caller's API key acts for.
func merchantScope(ctx context.Context) domain.MerchantScope {
	key := apiKeyFrom(ctx)
	return domain.MerchantScope{TenantID: key.TenantID, MerchantID: key.MerchantID}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	return io.ReadAll(r.Body)
}

// decodeStrict reads exactly one JSON document into dst, rejecting unknown
// fields and trailing tokens.
func decodeStrict(raw []byte, dst any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return ensureEOF(decoder)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) ([]byte, error) {
	raw, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	if err := decodeStrict(raw, dst); err != nil {
		return nil, err
	}
	return raw, nil
}

// respond writes body and records it as the api event response.
func respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	if sc := scopeFrom(r.Context()); sc != nil {
		sc.setResponse(body)
	}
	writeJSON(w, status, body)
}

// fail writes an error response and records cause on the api event.
func fail(w http.ResponseWriter, r *http.Request, status int, message string, cause error) {
	if sc := scopeFrom(r.Context()); sc != nil {
		sc.setError(errorPayload{Code: status, Message: message, Cause: errorText(cause)})
	}
	writeError(w, status, message)
}

type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("encode json response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// handleDomainError maps service errors onto HTTP statuses.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var violation *schemaViolation
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &violation):
		if sc := scopeFrom(r.Context()); sc != nil {
			sc.setError(errorPayload{Code: http.StatusUnprocessableEntity, Message: "schema violation", Cause: err.Error()})
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "schema violation", "details": violation.Errors})
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		if sc := scopeFrom(r.Context()); sc != nil {
			sc.setError(errorPayload{Code: http.StatusUnprocessableEntity, Message: "validation failed", Cause: err.Error()})
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "validation failed", "fields": fields})
	case errors.Is(err, domain.ErrInvalidMandate),
		errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrEmptyPatch):
		fail(w, r, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrGenerationUnsupported):
		fail(w, r, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		fail(w, r, http.StatusConflict, err.Error(), err)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		fail(w, r, http.StatusInternalServerError, "internal server error", err)
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}
