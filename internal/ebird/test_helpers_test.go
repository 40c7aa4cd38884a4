package ebird

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockResponse represents a mocked HTTP response
type mockResponse struct {
	status      int
	body        string
	contentType string
}

// setupTestClient creates a test client pointed at the given server
func setupTestClient(tb testing.TB, server *httptest.Server) *Client {
	tb.Helper()

	config := Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5 * time.Second,
		CacheTTL: time.Hour,
	}

	client, err := NewClient(config, nil)
	require.NoError(tb, err)
	return client
}

// setupMockServer creates a mock server with predefined responses keyed by
// path (plus raw query, when present).
func setupMockServer(tb testing.TB, responses map[string]mockResponse) (*httptest.Server, *int) {
	tb.Helper()

	requestCount := new(int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requestCount++

		if apiKey := r.Header.Get("X-eBirdApiToken"); apiKey == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title": "Unauthorized", "status": 401, "detail": "Missing API key"}`))
			return
		}

		key := r.URL.Path
		if response, ok := responses[key+"?"+r.URL.RawQuery]; ok {
			writeMockResponse(w, response)
			return
		}
		if response, ok := responses[key]; ok {
			writeMockResponse(w, response)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title": "Not Found", "status": 404, "detail": "Endpoint not found"}`))
	}))

	tb.Cleanup(server.Close)
	return server, requestCount
}

func writeMockResponse(w http.ResponseWriter, response mockResponse) {
	if response.contentType != "" {
		w.Header().Set("Content-Type", response.contentType)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(response.status)
	_, _ = w.Write([]byte(response.body))
}
