package resilience

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

func failing(err error) ai.Client {
	return ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, err
	})
}

func testSettings() BreakerSettings {
	s := DefaultBreakerSettings("test")
	s.MinRequests = 2
	s.FailureRatio = 0.5
	s.Timeout = time.Hour
	return s
}

func TestBreakerTripsOnUpstreamErrors(t *testing.T) {
	calls := 0
	next := ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		calls++
		return ai.Response{}, fmt.Errorf("%w: 503", ai.ErrUpstream)
	})
	b := NewBreaker(next, testSettings(), nil)

	for i := 0; i < 2; i++ {
		_, err := b.Generate(context.Background(), ai.Request{})
		assert.ErrorIs(t, err, ai.ErrUpstream)
	}
	assert.Equal(t, "open", b.State())
	assert.Error(t, b.Check(context.Background()))

	_, err := b.Generate(context.Background(), ai.Request{})
	assert.ErrorIs(t, err, ai.ErrUpstream)
	assert.Equal(t, 2, calls, "open breaker must not call the gateway")
}

func TestBreakerIgnoresRateLimitAndQuota(t *testing.T) {
	for _, sentinel := range []error{ai.ErrRateLimited, ai.ErrQuotaExhausted, ai.ErrUpstreamShape} {
		b := NewBreaker(failing(fmt.Errorf("%w: gateway said no", sentinel)), testSettings(), nil)
		for i := 0; i < 5; i++ {
			_, err := b.Generate(context.Background(), ai.Request{})
			assert.ErrorIs(t, err, sentinel)
		}
		assert.Equal(t, "closed", b.State(), sentinel.Error())
		assert.NoError(t, b.Check(context.Background()))
	}
}

func TestBreakerPassesResponse(t *testing.T) {
	b := NewBreaker(ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{Content: "hi"}, nil
	}), testSettings(), nil)
	resp, err := b.Generate(context.Background(), ai.Request{})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveModelCall(provider, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, provider+"/"+outcome)
}

func TestInstrumentedRecordsOutcome(t *testing.T) {
	obs := &recordingObserver{}
	ok := Instrument(ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{Content: "x"}, nil
	}), "gateway", obs)
	limited := Instrument(failing(ai.ErrRateLimited), "gateway", obs)

	_, err := ok.Generate(context.Background(), ai.Request{JSONObject: true})
	require.NoError(t, err)
	_, err = limited.Generate(context.Background(), ai.Request{Tool: &ai.Tool{Name: "t"}})
	require.ErrorIs(t, err, ai.ErrRateLimited)

	assert.Equal(t, []string{"gateway/ok", "gateway/rate_limited"}, obs.outcomes)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "quota_exhausted", Outcome(ai.ErrQuotaExhausted))
	assert.Equal(t, "bad_shape", Outcome(fmt.Errorf("x: %w", ai.ErrUpstreamShape)))
	assert.Equal(t, "upstream_error", Outcome(context.DeadlineExceeded))
}
