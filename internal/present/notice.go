package present

import (
	"errors"

	"github.com/bryanwahyu/skillscope/internal/client"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// Notice is a user-visible message for a failed action. Keep reports that
// resubmitting the same input later is worthwhile.
type Notice struct {
	Message string
	Keep    bool
}

func NoticeFor(err error) Notice {
	switch {
	case err == nil:
		return Notice{}
	case errors.Is(err, ai.ErrRateLimited):
		return Notice{Message: "Rate limit exceeded. Please try again in a moment.", Keep: true}
	case errors.Is(err, ai.ErrQuotaExhausted):
		return Notice{Message: "AI credits depleted. Please add more credits.", Keep: true}
	case errors.Is(err, domain.ErrUnauthenticated):
		return Notice{Message: "Please sign in to continue", Keep: true}
	case errors.Is(err, domain.ErrNotFound):
		return Notice{Message: "That item no longer exists"}
	case errors.Is(err, mindmap.ErrMalformedGraph):
		return Notice{Message: "Failed to parse mind map from AI service", Keep: true}
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return Notice{Message: apiErr.Message, Keep: true}
	}
	if errors.Is(err, domain.ErrValidation) {
		return Notice{Message: "Please check your input: " + err.Error(), Keep: true}
	}
	return Notice{Message: "Something went wrong. Please try again.", Keep: true}
}
