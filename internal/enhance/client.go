// Package enhance is the optional LLM post-processing step: it may
// polish tool names, descriptions, and safety levels, but the pipeline
// never depends on it succeeding. Every failure path returns the
// original tools untouched.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/config"
)

// maxResponseBytes caps completion responses.
const maxResponseBytes = 4 << 20

// Provider is one OpenAI-compatible chat endpoint with its key resolved.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
	APIKey  string
}

// ResolveProviders filters the configured providers down to those whose
// key environment variable is set. Order is preserved: the first entry
// is tried first, the rest are fallbacks.
func ResolveProviders(configs []config.ProviderConfig) []Provider {
	var providers []Provider
	for _, pc := range configs {
		key := os.Getenv(pc.KeyEnv)
		if key == "" {
			continue
		}
		providers = append(providers, Provider{
			Name:    pc.Name,
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			APIKey:  key,
		})
	}
	return providers
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls OpenAI-compatible chat endpoints with provider fallback.
type Client struct {
	providers  []Provider
	httpClient *http.Client
	logger     *common.Logger
}

// NewClient creates a completion client over the given provider chain.
func NewClient(providers []Provider, timeout time.Duration, logger *common.Logger) *Client {
	return &Client{
		providers:  providers,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ErrNoProviders reports that no provider has a key configured.
var ErrNoProviders = errors.New("no enhancement provider configured")

// Complete sends one system+user exchange, trying each provider in
// order until one answers.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for _, provider := range c.providers {
		c.logger.Info().
			Str("provider", provider.Name).
			Str("model", provider.Model).
			Msg("Trying enhancement provider")

		content, err := c.complete(ctx, provider, systemPrompt, userPrompt, maxTokens)
		if err != nil {
			c.logger.Warn().
				Str("provider", provider.Name).
				Err(err).
				Msg("Enhancement provider failed, trying next")
			lastErr = err
			continue
		}
		c.logger.Info().
			Str("provider", provider.Name).
			Int("chars", len(content)).
			Msg("Enhancement provider responded")
		return content, nil
	}
	return "", fmt.Errorf("all enhancement providers failed: %w", lastErr)
}

func (c *Client) complete(ctx context.Context, provider Provider, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	payload := chatRequest{
		Model: provider.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+provider.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach %s: %w", provider.Name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %d: %s", provider.Name, resp.StatusCode, firstBytes(respBody, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", provider.Name)
	}
	return parsed.Choices[0].Message.Content, nil
}

func firstBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
