package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	gojson "github.com/goccy/go-json"
)

// EventInput carries the raw attributes of a finished API transaction.
// Payload fields take any value; the builder serialises them.
type EventInput struct {
	TenantID        string
	MerchantID      string
	Flow            domain.Flow
	RequestID       string
	Latency         time.Duration
	HSLatency       *time.Duration
	StatusCode      int
	AuthType        domain.AuthType
	Request         any
	Response        any
	Error           any
	EventType       domain.EventType
	HTTPMethod      string
	URLPath         string
	IPAddr          string
	UserAgent       string
	InfraComponents map[string]any
}

// EventBuilder turns an EventInput into an immutable api event. It performs no
// I/O and never fails: unserialisable payloads degrade to their %+v form.
type EventBuilder struct {
	now func() time.Time
}

func NewEventBuilder(now func() time.Time) *EventBuilder {
	if now == nil {
		now = time.Now
	}
	return &EventBuilder{now: now}
}

func (b *EventBuilder) Build(in EventInput) domain.ApiEvent {
	request, degraded := serializePayload(in.Request)

	var response *string
	if in.Response != nil {
		out, d := serializePayload(in.Response)
		response = &out
		degraded = degraded || d
	}

	var errPayload json.RawMessage
	if in.Error != nil {
		out, d := serializeError(in.Error)
		errPayload = json.RawMessage(out)
		degraded = degraded || d
	}

	eventType := in.EventType
	if eventType == nil {
		eventType = domain.EventTypeOf(in.Request)
	}

	return domain.NewApiEvent(domain.ApiEventRecord{
		TenantID:        in.TenantID,
		MerchantID:      optional(in.MerchantID),
		APIFlow:         in.Flow.String(),
		RequestID:       in.RequestID,
		CreatedAt:       b.now().UTC().Truncate(time.Microsecond),
		Latency:         in.Latency,
		HSLatency:       in.HSLatency,
		StatusCode:      in.StatusCode,
		AuthType:        in.AuthType,
		Request:         request,
		Response:        response,
		Error:           errPayload,
		EventType:       eventType,
		HTTPMethod:      in.HTTPMethod,
		URLPath:         in.URLPath,
		IPAddr:          optional(in.IPAddr),
		UserAgent:       optional(sanitizeUTF8(in.UserAgent)),
		InfraComponents: in.InfraComponents,
		Degraded:        degraded,
	})
}

// serializePayload renders v as JSON text. Byte payloads that already hold
// valid JSON are embedded verbatim.
func serializePayload(v any) (string, bool) {
	switch p := v.(type) {
	case nil:
		return "null", false
	case json.RawMessage:
		return serializeBytes(p)
	case []byte:
		return serializeBytes(p)
	}
	out, err := gojson.Marshal(v)
	if err != nil {
		return fallback(v), true
	}
	return sanitizeUTF8(string(out)), false
}

func serializeBytes(p []byte) (string, bool) {
	if len(p) == 0 {
		return "null", false
	}
	if json.Valid(p) {
		return sanitizeUTF8(string(p)), false
	}
	out, _ := gojson.Marshal(sanitizeUTF8(string(p)))
	return string(out), false
}

func serializeError(v any) (string, bool) {
	if err, ok := v.(error); ok {
		out, _ := gojson.Marshal(map[string]string{"message": sanitizeUTF8(err.Error())})
		return string(out), false
	}
	return serializePayload(v)
}

func fallback(v any) string {
	out, _ := gojson.Marshal(sanitizeUTF8(fmt.Sprintf("%+v", v)))
	return string(out)
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
