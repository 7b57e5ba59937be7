package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewHTTPProvider(Config{
		Name:      "test",
		Model:     "gpt-4o-mini",
		BaseURL:   server.URL + "/v1/",
		APIKey:    "sk-test",
		MaxTokens: 64,
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewHTTPProvider failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewHTTPProvider_Validation(t *testing.T) {
	if _, err := NewHTTPProvider(Config{BaseURL: "http://localhost"}); err == nil {
		t.Error("Expected error without name")
	}
	if _, err := NewHTTPProvider(Config{Name: "p"}); err == nil {
		t.Error("Expected error without base URL")
	}

	p, err := NewHTTPProvider(Config{Name: "gpt-4o", BaseURL: "http://localhost"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Config().Model != "gpt-4o" {
		t.Errorf("Expected model to default to the name, got %q", p.Config().Model)
	}
}

func TestHTTPProvider_Success(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Unexpected authorization header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" || req.MaxTokens != 64 {
			t.Errorf("Unexpected request: %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" || req.Messages[0].Role != "user" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 3}
		}`))
	})

	completion, err := p.Invoke(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if completion.Content != "hi there" || completion.FinishReason != FinishReasonStop {
		t.Errorf("Unexpected completion: %+v", completion)
	}
	if completion.Model != "gpt-4o-mini-2024-07-18" || completion.ID != "chatcmpl-1" {
		t.Errorf("Unexpected completion metadata: %+v", completion)
	}
	if in, out := completion.Usage(); in != 9 || out != 3 {
		t.Errorf("Expected usage (9, 3), got (%d, %d)", in, out)
	}

	if total, failed := p.Requests(); total != 1 || failed != 0 {
		t.Errorf("Expected 1 request and 0 failures, got %d and %d", total, failed)
	}
}

func TestHTTPProvider_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		kind       error
	}{
		{"unauthorized", http.StatusUnauthorized, "", ErrAuth},
		{"rate limited", http.StatusTooManyRequests, "2", ErrRateLimited},
		{"bad request", http.StatusBadRequest, "", ErrInvalidRequest},
		{"server error", http.StatusInternalServerError, "", ErrServerError},
		{"unavailable", http.StatusServiceUnavailable, "", ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := p.Invoke(context.Background(), "hello")
			if !errors.Is(err, tt.kind) {
				t.Fatalf("Expected %v, got %v", tt.kind, err)
			}

			var rl *RateLimitError
			if errors.As(err, &rl) && rl.RetryAfter != 2*time.Second {
				t.Errorf("Expected 2s retry-after, got %v", rl.RetryAfter)
			}
			if _, failed := p.Requests(); failed != 1 {
				t.Errorf("Expected 1 failed request, got %d", failed)
			}
		})
	}
}

func TestHTTPProvider_MalformedResponse(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := p.Invoke(context.Background(), "hello")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestHTTPProvider_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	p, err := NewHTTPProvider(Config{Name: "down", BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewHTTPProvider failed: %v", err)
	}

	_, err = p.Invoke(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPProvider_Cancellation(t *testing.T) {
	release := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := p.Invoke(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		header   string
		expected time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{" 10 ", 10 * time.Second},
		{"-3", 0},
		{"soon", 0},
		{now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{now.Add(-30 * time.Second).Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		if got := parseRetryAfter(tt.header, now); got != tt.expected {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.expected)
		}
	}
}
