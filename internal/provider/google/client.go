package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/types"
)

// Message is a thin wrapper around genai.Content.
type Message genai.Content

var _ client.Message = (*Message)(nil)

// GetRole returns the role of the message.
func (m *Message) GetRole() string {
	if m == nil {
		return ""
	}
	return m.Role
}

// GetContent returns the parts of the message.
func (m *Message) GetContent() any {
	if m == nil || len(m.Parts) == 0 {
		return ""
	}
	return m.Parts[0].Text
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Parts: []*genai.Part{{Text: content}}}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Parts: []*genai.Part{{Text: content}}}
}

// ChatRequest wraps a Gemini request.
type ChatRequest struct {
	Model    string
	Messages []Message
	Config   *genai.GenerateContentConfig
}

var _ client.ChatRequest = (*ChatRequest)(nil)

// GetModel returns the model the request targets.
func (r *ChatRequest) GetModel() types.Model {
	return types.Model{Provider: "google", ModelID: r.Model}
}

// NewChatRequest creates a new chat request with the given model ID.
func NewChatRequest(modelID string) *ChatRequest {
	return &ChatRequest{Model: modelID, Config: &genai.GenerateContentConfig{}}
}

// WithMessages sets the request messages.
func (r *ChatRequest) WithMessages(msgs ...Message) *ChatRequest {
	r.Messages = append(r.Messages, msgs...)
	return r
}

// WithTemperature sets the request temperature.
func (r *ChatRequest) WithTemperature(t float64) *ChatRequest {
	f32 := float32(t)
	r.Config.Temperature = &f32
	return r
}

// WithJSON asks Gemini for a JSON response body.
func (r *ChatRequest) WithJSON() *ChatRequest {
	r.Config.ResponseMIMEType = "application/json"
	return r
}

// ChatResponse implements client.ChatResponse
type ChatResponse struct {
	*genai.GenerateContentResponse
}

// GetContent returns the response text.
func (r *ChatResponse) GetContent() any {
	return r.Text()
}

// Client is a Gemini API client
type Client struct {
	client *genai.Client
}

var _ client.CompletionClient = (*Client)(nil)

// NewClient fails when the SDK rejects the configuration, for example an
// empty key with no application default credentials.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &Client{client: c}, nil
}

// Chat calls the Gemini GenerateContent API.
func (c *Client) Chat(ctx context.Context, request *ChatRequest) (client.ChatResponse, error) {
	contents, systemInstruction := prepareContents(request.Messages)
	if systemInstruction != nil {
		request.Config.SystemInstruction = systemInstruction
	}

	resp, err := c.client.Models.GenerateContent(ctx, request.Model, contents, request.Config)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{GenerateContentResponse: resp}, nil
}

// Complete sends a single-turn request and returns the response text.
func (c *Client) Complete(ctx context.Context, model types.Model, req client.CompletionRequest) (string, error) {
	var msgs []Message
	if req.System != "" {
		msgs = append(msgs, SystemMessage(req.System))
	}
	msgs = append(msgs, UserMessage(req.Prompt))

	chatReq := NewChatRequest(strings.TrimPrefix(model.ModelID, "models/")).
		WithMessages(msgs...).
		WithTemperature(req.Temperature)
	if req.JSON {
		chatReq.WithJSON()
	}

	resp, err := c.Chat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("google completion failed: %w", err)
	}
	text, _ := resp.GetContent().(string)
	return text, nil
}

// prepareContents pulls the system message out of the list; Gemini takes it
// as SystemInstruction.
func prepareContents(msgs []Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content

	for i := range msgs {
		m := msgs[i]
		if m.Role == "system" {
			systemInstruction = &genai.Content{Parts: m.Parts}
			continue
		}
		contents = append(contents, (*genai.Content)(&m))
	}
	return contents, systemInstruction
}
