package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultModelID   = "anthropic.claude-3-5-haiku-20241022-v1:0"
	jsonOnly         = "\n\nRespond with a single JSON object only. Do not wrap it in markdown."
)

// Invoker is the slice of the Bedrock runtime API the client needs.
type Invoker interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client runs Claude models on Bedrock through the Anthropic messages API.
type Client struct {
	api       Invoker
	ModelID   string
	MaxTokens int
	Timeout   time.Duration
}

func New(api Invoker, modelID string, maxTokens int, timeout time.Duration) *Client {
	if modelID == "" {
		modelID = defaultModelID
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{api: api, ModelID: modelID, MaxTokens: maxTokens, Timeout: timeout}
}

// NewFromRegion loads the default AWS credential chain.
func NewFromRegion(ctx context.Context, region, modelID string, maxTokens int, timeout time.Duration) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(bedrockruntime.NewFromConfig(cfg), modelID, maxTokens, timeout), nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type request struct {
	AnthropicVersion string      `json:"anthropic_version"`
	MaxTokens        int         `json:"max_tokens"`
	System           string      `json:"system,omitempty"`
	Messages         []message   `json:"messages"`
	Tools            []tool      `json:"tools,omitempty"`
	ToolChoice       *toolChoice `json:"tool_choice,omitempty"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (c *Client) Generate(ctx context.Context, in ai.Request) (ai.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	body := request{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.MaxTokens,
		System:           in.System,
	}
	if in.MaxTokens > 0 {
		body.MaxTokens = in.MaxTokens
	}
	if in.JSONObject {
		body.System += jsonOnly
	}
	for _, m := range in.Messages {
		body.Messages = append(body.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	if in.Tool != nil {
		body.Tools = []tool{{Name: in.Tool.Name, Description: in.Tool.Description, InputSchema: in.Tool.Parameters}}
		body.ToolChoice = &toolChoice{Type: "tool", Name: in.Tool.Name}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return ai.Response{}, fmt.Errorf("marshal bedrock payload: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return ai.Response{}, classify(err)
	}

	var resp response
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return ai.Response{}, fmt.Errorf("decode bedrock response: %v: %w", err, ai.ErrUpstreamShape)
	}
	var res ai.Response
	var text strings.Builder
	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			text.WriteString(b.Text)
		case "tool_use":
			if in.Tool != nil && b.Name == in.Tool.Name {
				res.ToolName = b.Name
				res.ToolArguments = string(b.Input)
			}
		}
	}
	res.Content = text.String()
	if in.Tool != nil && res.ToolArguments == "" {
		return ai.Response{}, fmt.Errorf("no tool_use block in response: %w", ai.ErrUpstreamShape)
	}
	if in.Tool == nil && strings.TrimSpace(res.Content) == "" {
		return ai.Response{}, fmt.Errorf("empty response content: %w", ai.ErrUpstreamShape)
	}
	return res, nil
}

func classify(err error) error {
	var throttled *types.ThrottlingException
	var quota *types.ServiceQuotaExceededException
	switch {
	case errors.As(err, &throttled):
		return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
	case errors.As(err, &quota):
		return fmt.Errorf("%w: %v", ai.ErrQuotaExhausted, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: bedrock timeout: %v", ai.ErrUpstream, err)
	default:
		return fmt.Errorf("%w: bedrock invoke: %v", ai.ErrUpstream, err)
	}
}
