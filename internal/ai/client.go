// Package ai talks to an OpenAI-compatible chat-completions endpoint for
// document summaries and search query expansion.
package ai

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
)

// ErrUnavailable wraps every transport, auth, or model failure so callers can
// treat the whole class uniformly (degrade, never crash).
var ErrUnavailable = errors.New("ai: model unavailable")

// Client is a minimal chat-completions client. One instance is shared by the
// summarizer and the query expander.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

// Config configures the Client. APIKeyEnv names the environment variable
// holding the key, mirroring how the endpoint credentials are deployed.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient builds a Client from cfg, reading the API key from the
// environment. A missing key is an error at startup, not at call time.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("ai: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 2,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete sends one system+user exchange and returns the completion text.
// Rate-limit and server errors are retried with backoff; everything that
// still fails comes back wrapped in ErrUnavailable.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    []message{{Role: "system", Content: system}, {Role: "user", Content: user}},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrUnavailable, err)
	}

	url := c.baseURL + "/chat/completions"
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
			case <-time.After(retryDelay(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("status %s", resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return "", fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
		}

		var out completionResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(out.Choices) == 0 {
			lastErr = errors.New("empty choices")
			continue
		}
		return out.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}
