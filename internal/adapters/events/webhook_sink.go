package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookSink POSTs api events to an HTTP endpoint. The body is signed with
// HMAC-SHA256 over the bytes actually sent, so a gzip body is signed after
// compression. Non-2xx responses are errors.
type WebhookSink struct {
	url    string
	secret []byte
	gzip   bool
	client *http.Client
}

var _ ports.EventSink = (*WebhookSink)(nil)

// NewWebhookSink returns a sink posting to url. A zero or negative timeout
// falls back to defaultWebhookTimeout.
func NewWebhookSink(url, secret string, timeout time.Duration, gzipBody bool) *WebhookSink {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookSink{
		url:    url,
		secret: []byte(secret),
		gzip:   gzipBody,
		client: &http.Client{Timeout: timeout},
	}
}

// Publish sets these headers on every request:
//
//	Content-Type:          application/json
//	Content-Encoding:      gzip (only when enabled)
//	X-Switchcore-Topic:    <topic>
//	X-Switchcore-Flow:     <api flow>
//	X-Switchcore-Tenant:   <tenant id>
//	X-Request-Id:          <request id>
//	X-Hub-Signature-256:   sha256=<hex HMAC-SHA256 of the body>
func (s *WebhookSink) Publish(ctx context.Context, topic string, event domain.ApiEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if s.gzip {
		if payload, err = gzipBytes(payload); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}
	req.Header.Set("X-Switchcore-Topic", topic)
	req.Header.Set("X-Switchcore-Flow", event.APIFlow())
	req.Header.Set("X-Switchcore-Tenant", event.TenantID())
	req.Header.Set("X-Request-Id", event.RequestID())
	req.Header.Set("X-Hub-Signature-256", "sha256="+s.sign(payload))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSink) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
