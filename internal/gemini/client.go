package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"careercoach/internal/config"

	"google.golang.org/genai"
)

// ErrInit tags client construction failures. They are fatal at startup and
// never retried.
var ErrInit = errors.New("gemini client init failed")

// Client wraps the Google GenAI SDK behind the text-generation contract the
// response pipeline consumes.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewClient builds a Gemini API client. The API key is required; an empty
// key or a failed SDK construction is an initialization error.
func NewClient(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInit)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &Client{client: client, model: model, logger: logger}, nil
}

// GenerateText sends the prompt and returns the concatenated candidate
// text. An empty completion is an error; the pipeline treats it as "no text
// produced".
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("gemini api returned empty response")
	}

	if c.logger != nil {
		c.logger.Debug("gemini completion", slog.String("model", c.model), slog.Int("chars", len(out)))
	}
	return out, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}
