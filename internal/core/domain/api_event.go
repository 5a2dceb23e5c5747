package domain

import (
	"encoding/json"
	"maps"
	"time"

	gojson "github.com/goccy/go-json"
)

type AuthKind string

const (
	AuthKindAPIKey           AuthKind = "api_key"
	AuthKindAdminAPIKey      AuthKind = "admin_api_key"
	AuthKindPublishableKey   AuthKind = "publishable_key"
	AuthKindMerchantJWT      AuthKind = "merchant_jwt"
	AuthKindConnectorWebhook AuthKind = "connector_webhook"
	AuthKindNoAuth           AuthKind = "no_auth"
)

// AuthType describes how the caller of an API transaction authenticated.
type AuthType struct {
	Kind   AuthKind
	KeyID  string
	UserID string
}

func NoAuth() AuthType {
	return AuthType{Kind: AuthKindNoAuth}
}

func (a AuthType) wireFields() map[string]any {
	kind := a.Kind
	if kind == "" {
		kind = AuthKindNoAuth
	}
	out := map[string]any{"auth_type": string(kind)}
	if a.KeyID != "" {
		out["auth_key_id"] = a.KeyID
	}
	if a.UserID != "" {
		out["auth_user_id"] = a.UserID
	}
	return out
}

// ApiEventRecord holds the already-serialised attributes of one API transaction.
type ApiEventRecord struct {
	TenantID        string
	MerchantID      *string
	APIFlow         string
	RequestID       string
	CreatedAt       time.Time
	Latency         time.Duration
	HSLatency       *time.Duration
	StatusCode      int
	AuthType        AuthType
	Request         string
	Response        *string
	Error           json.RawMessage
	EventType       EventType
	HTTPMethod      string
	URLPath         string
	IPAddr          *string
	UserAgent       *string
	InfraComponents map[string]any
	Degraded        bool
}

// ApiEvent is the immutable audit envelope of a completed API transaction.
type ApiEvent struct {
	rec ApiEventRecord
}

func NewApiEvent(rec ApiEventRecord) ApiEvent {
	if rec.EventType == nil {
		rec.EventType = MiscellaneousEvent{}
	}
	if rec.Latency < 0 {
		rec.Latency = 0
	}
	if rec.HSLatency != nil && *rec.HSLatency < 0 {
		zero := time.Duration(0)
		rec.HSLatency = &zero
	}
	rec.Error = append(json.RawMessage(nil), rec.Error...)
	rec.InfraComponents = maps.Clone(rec.InfraComponents)
	return ApiEvent{rec: rec}
}

func (e ApiEvent) TenantID() string       { return e.rec.TenantID }
func (e ApiEvent) APIFlow() string        { return e.rec.APIFlow }
func (e ApiEvent) RequestID() string      { return e.rec.RequestID }
func (e ApiEvent) CreatedAt() time.Time   { return e.rec.CreatedAt }
func (e ApiEvent) Latency() time.Duration { return e.rec.Latency }
func (e ApiEvent) StatusCode() int        { return e.rec.StatusCode }
func (e ApiEvent) AuthType() AuthType     { return e.rec.AuthType }
func (e ApiEvent) Request() string        { return e.rec.Request }
func (e ApiEvent) EventType() EventType   { return e.rec.EventType }
func (e ApiEvent) HTTPMethod() string     { return e.rec.HTTPMethod }
func (e ApiEvent) URLPath() string        { return e.rec.URLPath }
func (e ApiEvent) Degraded() bool         { return e.rec.Degraded }

func (e ApiEvent) MerchantID() (string, bool) {
	if e.rec.MerchantID == nil {
		return "", false
	}
	return *e.rec.MerchantID, true
}

func (e ApiEvent) Response() (string, bool) {
	if e.rec.Response == nil {
		return "", false
	}
	return *e.rec.Response, true
}

func (e ApiEvent) HSLatency() (time.Duration, bool) {
	if e.rec.HSLatency == nil {
		return 0, false
	}
	return *e.rec.HSLatency, true
}

func (e ApiEvent) Error() json.RawMessage {
	return append(json.RawMessage(nil), e.rec.Error...)
}

// Key is the partition and ordering key on the event log.
func (e ApiEvent) Key() string {
	return e.rec.RequestID
}

// MarshalJSON renders the flat wire envelope. Auth and event type fields are
// flattened into the top level; infra components never shadow core fields.
func (e ApiEvent) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 24)
	for k, v := range e.rec.InfraComponents {
		out[k] = v
	}
	for k, v := range e.rec.AuthType.wireFields() {
		out[k] = v
	}
	for k, v := range e.rec.EventType.wireFields() {
		out[k] = v
	}

	out["tenant_id"] = e.rec.TenantID
	out["merchant_id"] = e.rec.MerchantID
	out["api_flow"] = e.rec.APIFlow
	out["request_id"] = e.rec.RequestID
	out["created_at"] = e.rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	out["created_at_timestamp"] = e.rec.CreatedAt.UnixMilli()
	out["latency"] = e.rec.Latency.Milliseconds()
	out["latency_us"] = e.rec.Latency.Microseconds()
	out["hs_latency"] = nil
	if e.rec.HSLatency != nil {
		out["hs_latency"] = e.rec.HSLatency.Milliseconds()
	}
	out["status_code"] = e.rec.StatusCode
	out["request"] = e.rec.Request
	out["response"] = e.rec.Response
	out["error"] = nil
	if len(e.rec.Error) > 0 {
		out["error"] = json.RawMessage(e.rec.Error)
	}
	out["event_type"] = e.rec.EventType.EventTypeName()
	out["http_method"] = e.rec.HTTPMethod
	out["url_path"] = e.rec.URLPath
	out["ip_addr"] = e.rec.IPAddr
	out["user_agent"] = e.rec.UserAgent
	if e.rec.Degraded {
		out["degraded"] = true
	}
	return gojson.Marshal(out)
}
