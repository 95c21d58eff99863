package ai

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Tool declares a structured call. Parameters is a JSON-schema document and must marshal to JSON.
type Tool struct {
	Name        string
	Description string
	Parameters  any
}

// Request is a provider-neutral completion request.
// When Tool is set the provider must force that tool and return its arguments in Response.ToolArguments.
// When JSONObject is set the provider asks for a bare JSON object completion.
type Request struct {
	System     string
	Messages   []Message
	Tool       *Tool
	JSONObject bool
	MaxTokens  int
}

type Response struct {
	Content       string
	ToolName      string
	ToolArguments string
}

// Client is the model capability. Implementations map gateway failures onto
// ErrRateLimited, ErrQuotaExhausted and ErrUpstream.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
