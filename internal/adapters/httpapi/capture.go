package httpapi

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/usecase"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// requestIDPattern is what a client supplied X-Request-Id must match to be
// kept; anything else is replaced by a generated id.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// eventScope accumulates what a handler learned about one request until the
// api event is built. Handlers write to it through the request context.
type eventScope struct {
	mu        sync.Mutex
	tenantID  string
	merchant  string
	authType  domain.AuthType
	request   any
	response  any
	err       any
	eventType domain.EventType
	upstream  time.Duration
}

func scopeFrom(ctx context.Context) *eventScope {
	sc, _ := ctx.Value(eventScopeCtxKey).(*eventScope)
	return sc
}

func (s *eventScope) authenticated(key domain.APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = key.TenantID
	s.merchant = key.MerchantID
	s.authType = key.AuthType()
}

func (s *eventScope) setRequest(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request = payload
}

func (s *eventScope) setResponse(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = payload
}

func (s *eventScope) setError(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = payload
}

func (s *eventScope) setEventType(et domain.EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventType = et
}

func (s *eventScope) addUpstream(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstream += d
}

// observe records the request payload and times call as upstream latency.
func observe[T any](r *http.Request, request any, call func(ctx context.Context) (T, error)) (T, error) {
	sc := scopeFrom(r.Context())
	if sc != nil && request != nil {
		sc.setRequest(request)
	}
	start := time.Now()
	out, err := call(r.Context())
	if sc != nil {
		sc.addUpstream(time.Since(start))
	}
	return out, err
}

// captureEvents emits one api event per request once the handler returns,
// including when it panics or fails authentication. The hand-off does not
// depend on the request context, so a client disconnect cannot drop it.
func (h *Handler) captureEvents(flow domain.Flow, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := requestIDFrom(r)
		w.Header().Set("X-Request-Id", requestID)

		sc := &eventScope{authType: domain.NoAuth()}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := context.WithValue(r.Context(), eventScopeCtxKey, sc)

		defer func() {
			status := ww.Status()
			if recovered := recover(); recovered != nil {
				status = http.StatusInternalServerError
				sc.setError(errorPayload{Code: status, Message: "panic"})
				defer panic(recovered)
			}
			if status == 0 {
				status = http.StatusOK
			}
			h.emit(flow, requestID, start, status, r, sc)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func (h *Handler) emit(flow domain.Flow, requestID string, start time.Time, status int, r *http.Request, sc *eventScope) {
	if h.events == nil {
		return
	}
	sc.mu.Lock()
	in := usecase.EventInput{
		TenantID:        sc.tenantID,
		MerchantID:      sc.merchant,
		Flow:            flow,
		RequestID:       requestID,
		Latency:         time.Since(start),
		StatusCode:      status,
		AuthType:        sc.authType,
		Request:         sc.request,
		Response:        sc.response,
		Error:           sc.err,
		EventType:       sc.eventType,
		HTTPMethod:      r.Method,
		URLPath:         r.URL.Path,
		IPAddr:          clientIP(r),
		UserAgent:       r.UserAgent(),
		InfraComponents: h.infra,
	}
	if sc.upstream > 0 {
		hs := sc.upstream
		in.HSLatency = &hs
	}
	sc.mu.Unlock()

	h.events.Publish(h.builder.Build(in))
}

func requestIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
	if !requestIDPattern.MatchString(id) {
		return uuid.NewString()
	}
	return id
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
