package resilience

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

// Observer receives one sample per model call.
type Observer interface {
	ObserveModelCall(provider, outcome string, d time.Duration)
}

// Instrumented wraps a client with a span and a metrics sample per call.
type Instrumented struct {
	next     ai.Client
	provider string
	tracer   trace.Tracer
	obs      Observer
}

func Instrument(next ai.Client, provider string, obs Observer) *Instrumented {
	return &Instrumented{
		next:     next,
		provider: provider,
		tracer:   otel.Tracer("github.com/bryanwahyu/skillscope/ai"),
		obs:      obs,
	}
}

func (c *Instrumented) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	mode := "text"
	switch {
	case req.Tool != nil:
		mode = "tool:" + req.Tool.Name
	case req.JSONObject:
		mode = "json_object"
	}
	ctx, span := c.tracer.Start(ctx, "ai.generate", trace.WithAttributes(
		attribute.String("ai.provider", c.provider),
		attribute.String("ai.mode", mode),
		attribute.Int("ai.messages", len(req.Messages)),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.next.Generate(ctx, req)
	outcome := Outcome(err)
	if c.obs != nil {
		c.obs.ObserveModelCall(c.provider, outcome, time.Since(start))
	}
	span.SetAttributes(attribute.String("ai.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return resp, err
}

// Outcome labels an error with its taxonomy name.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ai.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ai.ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, ai.ErrUpstreamShape):
		return "bad_shape"
	default:
		return "upstream_error"
	}
}
