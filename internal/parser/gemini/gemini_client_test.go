package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marksheet/internal/config"
	"marksheet/internal/domain"
	"marksheet/internal/parser"
	"marksheet/internal/parser/gemini"
)

func newTestClient(serverURL string) *gemini.Client {
	cfg := &config.ModelProviderConfig{
		Provider:     "gemini",
		APIKey:       "test-gemini-key",
		DefaultModel: "gemini-1.5-flash",
		TimeoutSecs:  5,
		MaxTokens:    1024,
	}
	return gemini.NewClientWithEndpoint(cfg, serverURL)
}

func successResponse(texts ...string) map[string]interface{} {
	parts := make([]map[string]interface{}, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, map[string]interface{}{"text": text})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": parts,
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestClient_Invoke_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		contents := reqBody["contents"].([]interface{})
		assert.Len(t, contents, 1)
		msg := contents[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		parts := msg["parts"].([]interface{})
		assert.Len(t, parts, 1)
		text := parts[0].(map[string]interface{})["text"].(string)
		assert.True(t, strings.HasPrefix(text, "extract please"))
		assert.Contains(t, text, "Raw OCR Text:\nName: Jane")

		genConfig := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, float64(0), genConfig["temperature"])
		assert.Equal(t, float64(1024), genConfig["maxOutputTokens"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(successResponse(`{"llm_confidence": 0.9}`))
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Invoke(context.Background(), "extract please", "Name: Jane")

	require.NoError(t, err)
	assert.Equal(t, `{"llm_confidence": 0.9}`, out)
}

func TestClient_Invoke_ReturnsTextUninterpreted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(successResponse("Sure! ", "```json\n{}\n```"))
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	require.NoError(t, err)
	assert.Equal(t, "Sure! ```json\n{}\n```", out)
}

func TestClient_Invoke_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 15*time.Second, rlErr.RetryAfter)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestClient_Invoke_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	var unavailable *parser.ModelUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, http.StatusForbidden, unavailable.StatusCode)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestClient_Invoke_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestClient_Invoke_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Invoke(context.Background(), "p", "t")

	var unavailable *parser.ModelUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, 0, unavailable.StatusCode)
}

func TestRegisteredProvider(t *testing.T) {
	inv, err := parser.NewInvoker(&config.ModelProviderConfig{Provider: "gemini", APIKey: "k"})

	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, inv)
}
