package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// ChatCompletionsPath is the endpoint HTTPProvider posts to, relative to
// MockServer.URL().
const ChatCompletionsPath = "/v1/chat/completions"

// MockServer is an OpenAI-compatible HTTP server for exercising
// providers.HTTPProvider. Responses are replayed in order; the last one
// repeats once the script runs out.
type MockServer struct {
	server       *httptest.Server
	script       []MockResponse
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// NewMockServer creates a mock server answering with responses in order.
func NewMockServer(responses ...MockResponse) *MockServer {
	ms := &MockServer{script: responses}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the base URL to configure a provider with.
func (ms *MockServer) URL() string {
	return ms.server.URL + "/v1"
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != ChatCompletionsPath || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	ms.mu.Lock()
	n := ms.requestCount
	ms.requestCount++
	var response MockResponse
	switch {
	case len(ms.script) == 0:
		response = MockCompletion("ok", "mock-model", 1, 1)
	case n < len(ms.script):
		response = ms.script[n]
	default:
		response = ms.script[len(ms.script)-1]
	}
	ms.mu.Unlock()

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.StatusCode)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// MockCompletion creates a successful chat completion response.
func MockCompletion(content, model string, promptTokens, completionTokens int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]any{
			"id":    "chatcmpl-mock",
			"model": model,
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
			},
		},
	}
}

// MockErrorResponse creates a mock error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"code":    statusCode,
			},
		},
	}
}

// MockRateLimitError creates a 429 response with a Retry-After header.
func MockRateLimitError(retryAfterSeconds int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfterSeconds),
	}
	return response
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// MockAuthError creates a 401 authentication error response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}
