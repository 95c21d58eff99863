package ai

import "errors"

var (
	// ErrRateLimited indicates the model gateway answered HTTP 429. Callers may retry later.
	ErrRateLimited = errors.New("ai rate limit exceeded")
	// ErrQuotaExhausted indicates the model gateway answered HTTP 402. Retrying will not help.
	ErrQuotaExhausted = errors.New("ai credits depleted")
	// ErrUpstream covers every other gateway failure: network errors, timeouts, non-2xx.
	ErrUpstream = errors.New("ai upstream failure")
	// ErrUpstreamShape indicates the gateway answered 2xx but the payload could not be used.
	ErrUpstreamShape = errors.New("invalid response from ai service")
)
