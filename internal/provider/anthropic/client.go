package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/types"
)

// Message is a wrapper around Anthropic's MessageParam.
type Message anthropic.MessageParam

var _ client.Message = (*Message)(nil)

// GetRole returns the role of the message.
func (m *Message) GetRole() string {
	if m == nil {
		return ""
	}
	return string(anthropic.MessageParam(*m).Role)
}

// GetContent returns the content blocks of the message.
func (m *Message) GetContent() any {
	if m == nil {
		return ""
	}
	return anthropic.MessageParam(*m).Content
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message(anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
}

// ChatRequest wraps MessageNewParams. Anthropic takes the system prompt as a
// request field rather than a message.
type ChatRequest struct {
	anthropic.MessageNewParams
}

var _ client.ChatRequest = (*ChatRequest)(nil)

// GetModel returns the model the request targets.
func (r *ChatRequest) GetModel() types.Model {
	if r == nil {
		return types.Model{Provider: "anthropic"}
	}
	return types.Model{Provider: "anthropic", ModelID: string(r.Model)}
}

// NewChatRequest creates a new chat request with the given model ID.
func NewChatRequest(modelID string) *ChatRequest {
	return &ChatRequest{MessageNewParams: anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
	}}
}

// WithMessages sets the request messages.
func (r *ChatRequest) WithMessages(msgs ...Message) *ChatRequest {
	r.Messages = make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		r.Messages[i] = anthropic.MessageParam(m)
	}
	return r
}

// WithSystem sets the system prompt.
func (r *ChatRequest) WithSystem(system string) *ChatRequest {
	if system != "" {
		r.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return r
}

// WithTemperature sets the request temperature.
func (r *ChatRequest) WithTemperature(t float64) *ChatRequest {
	r.Temperature = anthropic.Float(t)
	return r
}

// ChatResponse embeds Anthropic response and implements client.ChatResponse
type ChatResponse struct {
	*anthropic.Message
}

// GetContent joins every text block of the reply.
func (r *ChatResponse) GetContent() any {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// Client is an Anthropic API client
type Client struct {
	client *anthropic.Client
}

var _ client.CompletionClient = (*Client)(nil)

// NewClient creates a new Anthropic client
func NewClient(apiKey, baseURL string) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	c := anthropic.NewClient(opts...)
	return &Client{client: &c}
}

// Chat calls the Anthropic Messages API.
func (c *Client) Chat(ctx context.Context, request *ChatRequest) (client.ChatResponse, error) {
	resp, err := c.client.Messages.New(ctx, request.MessageNewParams)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Message: resp}, nil
}

// jsonInstruction stands in for a JSON mode, which the Messages API lacks.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// Complete sends a single-turn request and returns the concatenated text blocks.
func (c *Client) Complete(ctx context.Context, model types.Model, req client.CompletionRequest) (string, error) {
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	chatReq := NewChatRequest(model.ModelID).
		WithSystem(system).
		WithMessages(UserMessage(req.Prompt)).
		WithTemperature(req.Temperature)

	resp, err := c.Chat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}
	text, _ := resp.GetContent().(string)
	return text, nil
}
