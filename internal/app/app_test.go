package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/switchcore/internal/adapters/events"
)

func TestAutoSinkOrder(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"nothing", Config{}, SinkLog},
		{"webhook", Config{WebhookURL: "http://hooks"}, SinkWebhook},
		{"s3 before webhook", Config{S3Bucket: "b", WebhookURL: "http://hooks"}, SinkS3},
		{"amqp before s3", Config{AMQPURL: "amqp://x", S3Bucket: "b"}, SinkAMQP},
		{"kafka first", Config{KafkaBrokers: "k:9092", AMQPURL: "amqp://x"}, SinkKafka},
	}
	for _, tc := range cases {
		if got := autoSink(tc.cfg); got != tc.want {
			t.Errorf("%s: autoSink = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestNewEventSinkRejectsIncompleteConfig(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []string{SinkKafka, SinkAMQP, SinkS3, SinkWebhook, "carrier-pigeon"} {
		if _, _, err := newEventSink(ctx, Config{EventSink: kind}); err == nil {
			t.Errorf("%s: expected configuration error", kind)
		}
	}
}

func TestNewEventSinkBuildsConfiguredSink(t *testing.T) {
	ctx := context.Background()

	sink, closer, err := newEventSink(ctx, Config{EventSink: SinkKafka, KafkaBrokers: "localhost:9092"})
	if err != nil {
		t.Fatalf("kafka sink: %v", err)
	}
	if _, ok := sink.(*events.KafkaSink); !ok || closer == nil {
		t.Fatalf("expected closable kafka sink, got %T", sink)
	}
	_ = closer.Close()

	sink, _, err = newEventSink(ctx, Config{WebhookURL: "http://localhost:9", WebhookGzip: true})
	if err != nil {
		t.Fatalf("webhook sink: %v", err)
	}
	if _, ok := sink.(*events.WebhookSink); !ok {
		t.Fatalf("expected webhook sink, got %T", sink)
	}
}

func TestNewServerServesMandates(t *testing.T) {
	cfg := Config{
		Addr:              ":0",
		DBPath:            filepath.Join(t.TempDir(), "switchcore.sqlite"),
		BootstrapAPIKey:   "secret-key",
		BootstrapMerchant: "merchant_1",
		EventSink:         SinkLog,
		ServiceName:       "switchcore",
	}

	server, closer, err := NewServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = closer.Close() })

	body := `{"mandate_id":"man_app","customer_id":"cus_1","connector":"stripe","mandate_type":"single_use"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/mandates", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/mandates/man_app", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"merchant_id":"merchant_1"`) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "api_events_enqueued_total=") {
		t.Fatalf("metrics: %s", rec.Body.String())
	}
}

func TestNewServerRejectsUnknownDriver(t *testing.T) {
	_, _, err := NewServer(context.Background(), Config{DBDriver: "oracle", DBPath: filepath.Join(t.TempDir(), "x")})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
