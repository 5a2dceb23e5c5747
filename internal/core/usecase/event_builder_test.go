package usecase

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 891234567, time.UTC)

type unmarshalable struct{ Name string }

func (unmarshalable) MarshalJSON() ([]byte, error) { return nil, errors.New("boom") }

func decodeEvent(t *testing.T, ev domain.ApiEvent) map[string]any {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return out
}

func TestEventBuilderMandateRetrieve(t *testing.T) {
	b := NewEventBuilder(func() time.Time { return fixedNow })
	ev := b.Build(EventInput{
		TenantID:   "public",
		MerchantID: "m1",
		Flow:       domain.FlowMandatesRetrieve,
		RequestID:  "req-42",
		Latency:    12 * time.Millisecond,
		StatusCode: 200,
		AuthType:   domain.AuthType{Kind: domain.AuthKindAPIKey, KeyID: "k1"},
		Request:    domain.MandateID{MandateID: "man_1"},
		Response:   map[string]string{"mandate_id": "man_1", "status": "active"},
		HTTPMethod: "GET",
		URLPath:    "/v1/mandates/man_1",
	})

	if ev.APIFlow() != "MandatesRetrieve" {
		t.Fatalf("unexpected flow %s", ev.APIFlow())
	}
	if !ev.CreatedAt().Equal(fixedNow.Truncate(time.Microsecond)) {
		t.Fatalf("expected microsecond precision clock, got %v", ev.CreatedAt())
	}
	if et, ok := ev.EventType().(domain.MandateEvent); !ok || et.MandateID != "man_1" {
		t.Fatalf("expected mandate event derived from request, got %#v", ev.EventType())
	}
	if ev.Request() != `{"mandate_id":"man_1"}` {
		t.Fatalf("unexpected request payload %s", ev.Request())
	}
	got := decodeEvent(t, ev)
	if got["event_type"] != "mandate" || got["mandate_id"] != "man_1" || got["merchant_id"] != "m1" {
		t.Fatalf("unexpected wire form: %v", got)
	}
	if ev.Degraded() {
		t.Fatal("clean payloads must not degrade")
	}
}

func TestEventBuilderDegradesUnserializablePayload(t *testing.T) {
	b := NewEventBuilder(func() time.Time { return fixedNow })
	ev := b.Build(EventInput{
		Flow:      domain.FlowPollRetrieveStatus,
		RequestID: "req-1",
		Request:   unmarshalable{Name: "x"},
		EventType: domain.PollID{PollID: "poll_1"}.APIEventType(),
	})
	if !ev.Degraded() {
		t.Fatal("expected degraded event")
	}
	var s string
	if err := json.Unmarshal([]byte(ev.Request()), &s); err != nil {
		t.Fatalf("fallback must still be a json string: %v", err)
	}
	if !strings.Contains(s, "Name:x") {
		t.Fatalf("expected %%+v rendering, got %q", s)
	}
	if decodeEvent(t, ev)["degraded"] != true {
		t.Fatal("degraded flag missing from wire form")
	}
}

func TestEventBuilderEmbedsJSONBytesAndReplacesInvalidUTF8(t *testing.T) {
	b := NewEventBuilder(nil)
	ev := b.Build(EventInput{
		RequestID: "r",
		Request:   []byte(`{"a":1}`),
		Response:  []byte("bad \xff bytes"),
		UserAgent: "agent\xfe",
	})
	if ev.Request() != `{"a":1}` {
		t.Fatalf("expected verbatim json, got %s", ev.Request())
	}
	resp, ok := ev.Response()
	if !ok {
		t.Fatal("expected response to be present")
	}
	var s string
	if err := json.Unmarshal([]byte(resp), &s); err != nil {
		t.Fatalf("non-json bytes must be wrapped as a json string: %v", err)
	}
	if !strings.Contains(s, "�") {
		t.Fatalf("expected replacement character, got %q", s)
	}
	got := decodeEvent(t, ev)
	if ua, _ := got["user_agent"].(string); !strings.HasSuffix(ua, "�") {
		t.Fatalf("expected sanitised user agent, got %q", ua)
	}
}

func TestEventBuilderOptionalFieldsAndClamping(t *testing.T) {
	b := NewEventBuilder(func() time.Time { return fixedNow })
	hs := -5 * time.Millisecond
	ev := b.Build(EventInput{
		RequestID: "r",
		Latency:   -time.Second,
		HSLatency: &hs,
		Request:   domain.Config{Key: "k"},
		Error:     errors.New("store unavailable"),
		AuthType:  domain.NoAuth(),
	})
	if ev.Latency() != 0 {
		t.Fatalf("expected clamped latency, got %v", ev.Latency())
	}
	if got, ok := ev.HSLatency(); !ok || got != 0 {
		t.Fatalf("expected clamped hs latency, got %v %v", got, ok)
	}
	if _, ok := ev.MerchantID(); ok {
		t.Fatal("merchant id should be absent")
	}
	if _, ok := ev.Response(); ok {
		t.Fatal("response should be absent")
	}
	if _, ok := ev.EventType().(domain.MiscellaneousEvent); !ok {
		t.Fatalf("config requests are miscellaneous, got %T", ev.EventType())
	}
	got := decodeEvent(t, ev)
	errObj, ok := got["error"].(map[string]any)
	if !ok || errObj["message"] != "store unavailable" {
		t.Fatalf("unexpected error payload: %#v", got["error"])
	}
	if got["auth_type"] != "no_auth" {
		t.Fatalf("unexpected auth type %v", got["auth_type"])
	}
}
