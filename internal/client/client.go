// Package client calls the skillscope HTTP API. Input is trimmed and checked
// before any request is sent, and error statuses map back onto the domain
// sentinels so callers can classify them with errors.Is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// APIError is a non-2xx answer. It unwraps to the matching sentinel.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("skillscope api: %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

func kindFor(status int, msg string) error {
	switch {
	case status == http.StatusBadRequest:
		return domain.ErrValidation
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case status == http.StatusForbidden:
		return domain.ErrForbidden
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusTooManyRequests:
		return ai.ErrRateLimited
	case status == http.StatusPaymentRequired:
		return ai.ErrQuotaExhausted
	case strings.HasPrefix(msg, "Failed to parse mind map"):
		return mindmap.ErrMalformedGraph
	case strings.HasPrefix(msg, "Invalid response from AI"):
		return ai.ErrUpstreamShape
	default:
		return ai.ErrUpstream
	}
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	// stream has no overall timeout; event streams stay open.
	stream *http.Client
}

type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
		stream:  &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func required(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s is required: %w", field, domain.ErrValidation)
	}
	return v, nil
}

// AnalyzeTopic calls POST /analyze-topic.
func (c *Client) AnalyzeTopic(ctx context.Context, topic string) (*analysis.Result, error) {
	topic, err := required("topic", topic)
	if err != nil {
		return nil, err
	}
	var out struct {
		Analysis *analysis.Result `json:"analysis"`
	}
	if err := c.do(ctx, http.MethodPost, "/analyze-topic", map[string]string{"topic": topic}, &out); err != nil {
		return nil, err
	}
	if out.Analysis == nil {
		return nil, fmt.Errorf("response without analysis: %w", ai.ErrUpstreamShape)
	}
	return out.Analysis, nil
}

type MindMapRequest struct {
	Topic        string `json:"topic"`
	InterestArea string `json:"interestArea,omitempty"`
	SkillLevel   string `json:"skillLevel,omitempty"`
}

// GenerateMindMap calls POST /generate-mind-map.
func (c *Client) GenerateMindMap(ctx context.Context, in MindMapRequest) (*mindmap.Graph, error) {
	topic, err := required("topic", in.Topic)
	if err != nil {
		return nil, err
	}
	in.Topic = topic
	in.InterestArea = strings.TrimSpace(in.InterestArea)
	if _, ok := mindmap.ParseSkillLevel(in.SkillLevel); !ok {
		return nil, fmt.Errorf("unknown skill level %q: %w", in.SkillLevel, domain.ErrValidation)
	}
	var out struct {
		MindMap *mindmap.Graph `json:"mindMap"`
	}
	if err := c.do(ctx, http.MethodPost, "/generate-mind-map", in, &out); err != nil {
		return nil, err
	}
	if out.MindMap == nil {
		return nil, fmt.Errorf("response without mind map: %w", mindmap.ErrMalformedGraph)
	}
	return out.MindMap, nil
}

type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversationId,omitempty"`
	AssistanceType string   `json:"assistanceType,omitempty"`
	UserInterests  []string `json:"userInterests,omitempty"`
}

type ChatResponse struct {
	Response       string              `json:"response"`
	ConversationID chat.ConversationID `json:"conversationId"`
	Turns          []chat.Turn         `json:"turns"`
	Warning        string              `json:"warning,omitempty"`
}

// Chat calls POST /personalized-chat.
func (c *Client) Chat(ctx context.Context, in ChatRequest) (*ChatResponse, error) {
	msg, err := required("message", in.Message)
	if err != nil {
		return nil, err
	}
	in.Message = msg
	if _, ok := chat.ParseAssistanceType(in.AssistanceType); !ok {
		return nil, fmt.Errorf("unknown assistance type %q: %w", in.AssistanceType, domain.ErrValidation)
	}
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/personalized-chat", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartConversation(ctx context.Context, assistanceType string) (*chat.Conversation, error) {
	var out chat.Conversation
	body := map[string]string{"assistanceType": assistanceType}
	if err := c.do(ctx, http.MethodPost, "/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Conversations(ctx context.Context) ([]chat.Conversation, error) {
	var out []chat.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Messages(ctx context.Context, id chat.ConversationID) ([]chat.Turn, error) {
	if _, err := required("conversation id", string(id)); err != nil {
		return nil, err
	}
	var out []chat.Turn
	if err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(string(id))+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, ai.ErrUpstream)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", path, err, ai.ErrUpstreamShape)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg, kind: kindFor(resp.StatusCode, msg)}
}

// IsRetriable reports whether resubmitting the same input may succeed later.
func IsRetriable(err error) bool {
	return errors.Is(err, ai.ErrRateLimited) || errors.Is(err, ai.ErrUpstream)
}
