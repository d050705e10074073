package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lexaprendiz/lexaprendiz/pkg/llm"
)

const DefaultModel = "gemini-2.0-flash"

// Client answers through the Gemini API.
type Client struct {
	client    *genai.Client
	Model     string
	MaxTokens int32
}

// New creates the client. An empty key yields a client whose calls fail with
// llm.ErrNotConfigured, matching the OpenAI client.
func New(ctx context.Context, apiKey, model string, maxTokens int) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{Model: model, MaxTokens: int32(maxTokens)}
	if apiKey == "" {
		return c, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.client = client
	return c, nil
}

func (c *Client) Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.client == nil {
		return "", llm.ErrNotConfigured
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	}
	if c.MaxTokens > 0 {
		cfg.MaxOutputTokens = c.MaxTokens
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.Model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", classify(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrEmptyAnswer
	}
	return text, nil
}

// Ping fetches the configured model's metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return llm.ErrNotConfigured
	}
	if _, err := c.client.Models.Get(ctx, c.Model, nil); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps genai API errors onto llm.UpstreamError.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &llm.UpstreamError{Provider: "gemini", StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}
