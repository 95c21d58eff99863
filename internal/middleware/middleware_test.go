package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

type verifierFunc func(ctx context.Context, token string) (*identity.Session, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*identity.Session, error) {
	return f(ctx, token)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(identity.UserID(r.Context())))
}

func TestAuthenticate(t *testing.T) {
	v := verifierFunc(func(_ context.Context, token string) (*identity.Session, error) {
		if token == "Bearer good" {
			return &identity.Session{UserID: "u1"}, nil
		}
		if token == "Bearer down" {
			return nil, errors.New("dial tcp: refused")
		}
		return nil, domain.ErrUnauthenticated
	})

	tests := []struct {
		name     string
		header   string
		fallback *identity.Session
		status   int
		body     string
	}{
		{"valid token", "Bearer good", nil, http.StatusOK, "u1"},
		{"anonymous", "", nil, http.StatusOK, ""},
		{"fallback user", "", &identity.Session{UserID: "default"}, http.StatusOK, "default"},
		{"bad token", "Bearer bad", nil, http.StatusUnauthorized, "Authentication required"},
		{"verifier down", "Bearer down", nil, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticate(v, tt.fallback, logger.Nop())(http.HandlerFunc(echoUser))
			req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAuthenticateSkipsProbes(t *testing.T) {
	v := verifierFunc(func(context.Context, string) (*identity.Session, error) {
		return nil, domain.ErrUnauthenticated
	})
	h := Authenticate(v, nil, logger.Nop())(http.HandlerFunc(LivenessHandler))
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession(t *testing.T) {
	h := RequireSession(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mind-maps", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/mind-maps", nil)
	req = req.WithContext(identity.WithSession(req.Context(), &identity.Session{UserID: "u2"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", rec.Body.String())
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Now()
	assert.True(t, rl.allowAt("a", now))
	assert.True(t, rl.allowAt("a", now))
	assert.False(t, rl.allowAt("a", now))
	assert.True(t, rl.allowAt("b", now))
	assert.True(t, rl.allowAt("a", now.Add(time.Second)))

	rl.Sweep(now.Add(time.Hour))
	assert.Empty(t, rl.visitors)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Middleware(http.HandlerFunc(echoUser))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/personalized-chat", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded. Please try again in a moment."}`, rec.Body.String())
}

type sample struct {
	Topic string `json:"topic" validate:"required,max=10"`
	Level string `json:"level" validate:"omitempty,oneof=beginner advanced"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sample{Topic: "go"}))

	err := Validate(sample{Level: "guru"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "topic is required")
	assert.Contains(t, err.Error(), "level must be one of")

	err = Validate(sample{Topic: strings.Repeat("x", 11)})
	assert.Contains(t, err.Error(), "topic must be at most 10")
}

func TestSanitizeAndLimits(t *testing.T) {
	assert.Equal(t, "hello\tworld", SanitizeString("  hel\x00lo\tworld\x07 "))
	assert.Equal(t, 5, ValidateLimit(0, 5, 20))
	assert.Equal(t, 20, ValidateLimit(99, 5, 20))
	assert.Equal(t, 7, ValidateLimit(7, 5, 20))
	assert.Equal(t, 1, ValidatePage(-3))
	assert.Equal(t, 4, ValidatePage(4))
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"store": CheckFunc(func(context.Context) error { return nil }),
		"feed":  CheckFunc(func(context.Context) error { return errors.New("redis down") }),
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis down"`)
	assert.Contains(t, rec.Body.String(), `"unhealthy"`)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetrics("skillscope")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/mind-maps/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mind-maps/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/mind-maps/{id}", "404")))

	m.ObserveModelCall("gateway", "ok", 2*time.Second)
	m.ChatPairPersisted(false)
	m.SetFeedSubscribers(3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("gateway", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatPairs.WithLabelValues("lost")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.subscribers))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "skillscope_feed_subscribers 3")
}
