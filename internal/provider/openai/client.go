package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/types"
)

// Message is a thin wrapper around OpenAI's ChatCompletionMessageParamUnion.
type Message openai.ChatCompletionMessageParamUnion

var _ client.Message = (*Message)(nil)

// GetRole returns the role of the message.
func (m *Message) GetRole() string {
	if m == nil {
		return ""
	}
	u := openai.ChatCompletionMessageParamUnion(*m)
	role := u.GetRole()
	if role == nil {
		return ""
	}
	return *role
}

// GetContent returns the text content of the message.
func (m *Message) GetContent() any {
	if m == nil {
		return ""
	}
	u := openai.ChatCompletionMessageParamUnion(*m)
	return u.GetContent()
}

// UserMessage creates a user message.
func UserMessage(content string) Message   { return Message(openai.UserMessage(content)) }
// SystemMessage creates a system message.
func SystemMessage(content string) Message { return Message(openai.SystemMessage(content)) }

// ChatRequest wraps OpenAI's ChatCompletionNewParams.
type ChatRequest openai.ChatCompletionNewParams

var _ client.ChatRequest = (*ChatRequest)(nil)

// GetModel returns the model the request targets.
func (r *ChatRequest) GetModel() types.Model {
	if r == nil {
		return types.Model{Provider: "openai"}
	}
	params := openai.ChatCompletionNewParams(*r)
	return types.Model{Provider: "openai", ModelID: string(params.Model)}
}

// NewChatRequest creates a new chat request with the given model ID.
func NewChatRequest(modelID string) *ChatRequest {
	req := ChatRequest(openai.ChatCompletionNewParams{Model: openai.ChatModel(modelID)})
	return &req
}

// WithMessages sets the request messages.
func (r *ChatRequest) WithMessages(msgs ...Message) *ChatRequest {
	params := openai.ChatCompletionNewParams(*r)
	params.Messages = make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		params.Messages[i] = openai.ChatCompletionMessageParamUnion(m)
	}
	*r = ChatRequest(params)
	return r
}

// WithTemperature sets the request temperature.
func (r *ChatRequest) WithTemperature(t float64) *ChatRequest {
	params := openai.ChatCompletionNewParams(*r)
	params.Temperature = openai.Float(t)
	*r = ChatRequest(params)
	return r
}

// WithJSONObject turns on JSON mode.
func (r *ChatRequest) WithJSONObject() *ChatRequest {
	params := openai.ChatCompletionNewParams(*r)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
	}
	*r = ChatRequest(params)
	return r
}

// ChatResponse embeds OpenAI response and implements client.ChatResponse
type ChatResponse struct {
	*openai.ChatCompletion
}

// GetContent returns the text of the first choice.
func (r *ChatResponse) GetContent() any {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// Client talks to the OpenAI API or any server that speaks its protocol,
// such as Groq.
type Client struct {
	client   openai.Client
	provider string
}

var _ client.CompletionClient = (*Client)(nil)

// NewClient creates a client. provider is only used to label models in
// errors and metrics.
func NewClient(provider, apiKey, baseURL string) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{client: openai.NewClient(opts...), provider: provider}
}

// Chat calls the OpenAI Chat Completions API.
func (c *Client) Chat(ctx context.Context, request *ChatRequest) (client.ChatResponse, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams(*request))
	if err != nil {
		return nil, err
	}
	return &ChatResponse{ChatCompletion: resp}, nil
}

// Complete runs a single system+user exchange.
func (c *Client) Complete(ctx context.Context, model types.Model, req client.CompletionRequest) (string, error) {
	var msgs []Message
	if req.System != "" {
		msgs = append(msgs, SystemMessage(req.System))
	}
	msgs = append(msgs, UserMessage(req.Prompt))

	chatReq := NewChatRequest(model.ModelID).WithMessages(msgs...).WithTemperature(req.Temperature)
	if req.JSON {
		chatReq.WithJSONObject()
	}

	resp, err := c.Chat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", c.provider, err)
	}
	text, _ := resp.GetContent().(string)
	return text, nil
}
