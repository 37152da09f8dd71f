package openai_test

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
	"marksheet/internal/parser/openai"
)

func newTestClient(serverURL string) *openai.Client {
	cfg := &config.ModelProviderConfig{
		Provider:     "openai",
		APIKey:       "test-openai-key",
		DefaultModel: "gpt-4o-mini",
		TimeoutSecs:  5,
		MaxTokens:    256,
	}
	return openai.NewClientWithEndpoint(cfg, serverURL+"/")
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
	return string(b)
}

func TestClient_Invoke_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody["model"])
		assert.Equal(t, float64(0), reqBody["temperature"])
		assert.Equal(t, float64(256), reqBody["max_completion_tokens"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
		assert.Equal(t, "extract please", messages[0].(map[string]interface{})["content"])
		assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
		assert.Equal(t, parser.RawTextMessage("Total: 432"), messages[1].(map[string]interface{})["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"llm_confidence": 0.4}`)))
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Invoke(context.Background(), "extract please", "Total: 432")

	require.NoError(t, err)
	assert.Equal(t, `{"llm_confidence": 0.4}`, out)
}

func TestClient_Invoke_RateLimitedWithoutSDKRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Equal(t, 1, calls)
}

func TestClient_Invoke_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"internal","type":"server_error"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	var unavailable *parser.ModelUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, http.StatusInternalServerError, unavailable.StatusCode)
}

func TestClient_Invoke_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("")))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Invoke(context.Background(), "p", "t")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}
