package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

const (
	defaultModel     = "google/gemini-2.5-flash"
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second
)

type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client talks to any OpenAI-compatible chat completions gateway.
type Client struct {
	*openai.Client
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	c := &Client{
		Client:    openai.NewClientWithConfig(cfg),
		Model:     opts.Model,
		MaxTokens: opts.MaxTokens,
		Timeout:   opts.Timeout,
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

func (c *Client) Generate(ctx context.Context, in ai.Request) (ai.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: toMessages(in),
	}
	if in.JSONObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if in.Tool != nil {
		req.Tools = []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        in.Tool.Name,
				Description: in.Tool.Description,
				Parameters:  in.Tool.Parameters,
			},
		}}
		req.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: in.Tool.Name},
		}
	}
	maxTokens := c.MaxTokens
	if in.MaxTokens > 0 {
		maxTokens = in.MaxTokens
	}
	// reasoning models (o1/o3/o4/gpt-5*) reject max_tokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.Response{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return ai.Response{}, fmt.Errorf("no choices in completion: %w", ai.ErrUpstreamShape)
	}
	msg := resp.Choices[0].Message
	out := ai.Response{Content: msg.Content}
	if in.Tool != nil {
		for _, tc := range msg.ToolCalls {
			if tc.Function.Name == in.Tool.Name || tc.Function.Name == "" {
				out.ToolName = in.Tool.Name
				out.ToolArguments = tc.Function.Arguments
				break
			}
		}
		if strings.TrimSpace(out.ToolArguments) == "" {
			return ai.Response{}, fmt.Errorf("no tool call found in response: %w", ai.ErrUpstreamShape)
		}
	}
	return out, nil
}

func toMessages(in ai.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(in.Messages)+1)
	if in.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: in.System})
	}
	for _, m := range in.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == ai.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// classify maps gateway failures onto the ai error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gateway timeout: %v", ai.ErrUpstream, err)
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %v", ai.ErrQuotaExhausted, err)
	default:
		return fmt.Errorf("%w: failed to create chat completion (status %d): %v", ai.ErrUpstream, status, err)
	}
}

