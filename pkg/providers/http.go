package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// maxErrorBody bounds how much of an error response is kept in errors.
const maxErrorBody = 4096

// HTTPProvider calls an OpenAI-compatible chat completions endpoint
// (POST {BaseURL}/chat/completions). It sends one request per Invoke and
// maps failures to the typed errors in this package.
type HTTPProvider struct {
	config Config
	client *http.Client
	logger *slog.Logger

	totalRequests  atomic.Int64
	failedRequests atomic.Int64
}

// NewHTTPProvider creates a provider with a pooled HTTP client.
func NewHTTPProvider(config Config) (*HTTPProvider, error) {
	if config.Name == "" {
		return nil, errors.New("provider name is required")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base URL is required", config.Name)
	}
	if config.Model == "" {
		config.Model = config.Name
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "providers", "provider", config.Name),
	}, nil
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Config returns the provider's configuration.
func (p *HTTPProvider) Config() Config {
	return p.config
}

// Requests returns the total and failed request counts.
func (p *HTTPProvider) Requests() (total, failed int64) {
	return p.totalRequests.Load(), p.failedRequests.Load()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Invoke sends prompt as a single user message.
func (p *HTTPProvider) Invoke(ctx context.Context, prompt string) (*Completion, error) {
	p.totalRequests.Add(1)

	completion, err := p.invoke(ctx, prompt)
	if err != nil {
		p.failedRequests.Add(1)
		p.logger.Debug("provider request failed", "error", err)
		return nil, err
	}
	return completion, nil
}

func (p *HTTPProvider) invoke(ctx context.Context, prompt string) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:     p.config.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: p.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// The caller's cancellation is not a provider failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
		}
		return nil, &ConnectionError{Provider: p.config.Name, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return nil, ClassifyStatus(p.config.Name, resp.StatusCode, string(errorBody), retryAfter)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{Provider: p.config.Name, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ParseError{
			Provider:    p.config.Name,
			RawResponse: string(raw),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	if len(decoded.Choices) == 0 {
		return nil, &ParseError{
			Provider:    p.config.Name,
			RawResponse: string(raw),
			Cause:       errors.New("response has no choices"),
		}
	}

	model := decoded.Model
	if model == "" {
		model = p.config.Model
	}
	return &Completion{
		ID:               decoded.ID,
		Model:            model,
		Content:          decoded.Choices[0].Message.Content,
		FinishReason:     decoded.Choices[0].FinishReason,
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
	}, nil
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}

	return 0
}
