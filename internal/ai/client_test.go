package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/saludvia/portal-server-go/internal/errors"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestCompleteSendsAuthAndModel(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(completionResponse("hola"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key", "test-model", 5*time.Second)

	reply, err := client.Complete(context.Background(), []Message{Text(RoleUser, "hola?")})

	require.NoError(t, err)
	assert.Equal(t, "hola", reply)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "test-model", gotBody.Model)
}

func TestCompleteMapsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", 5*time.Second)

	_, err := client.Complete(context.Background(), []Message{Text(RoleUser, "hi")})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAIRateLimited, apperrors.GetCode(err))
}

func TestCompleteMapsQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", 5*time.Second)

	_, err := client.Complete(context.Background(), []Message{Text(RoleUser, "hi")})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAIQuotaExceeded, apperrors.GetCode(err))
}

func TestCompleteMapsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", 5*time.Second)

	_, err := client.Complete(context.Background(), []Message{Text(RoleUser, "hi")})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
}

func TestCompleteStructuredRequestsStrictSchema(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(completionResponse(`{"title": "Resultados de laboratorio"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", 5*time.Second)

	var out struct {
		Title string `json:"title"`
	}
	schema := json.RawMessage(`{"type":"object","properties":{"title":{"type":"string"}},"required":["title"]}`)
	err := client.CompleteStructured(context.Background(), []Message{Text(RoleUser, "titulo")}, "doc_title", schema, &out)

	require.NoError(t, err)
	assert.Equal(t, "Resultados de laboratorio", out.Title)

	format := gotBody["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]any)
	assert.Equal(t, "doc_title", jsonSchema["name"])
	assert.Equal(t, true, jsonSchema["strict"])
}

func TestCompleteStructuredRejectsNonConformingOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Free text instead of schema JSON. No recovery is attempted.
		json.NewEncoder(w).Encode(completionResponse(`Here is your JSON: {"title": "x"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", 5*time.Second)

	var out struct {
		Title string `json:"title"`
	}
	err := client.CompleteStructured(context.Background(), []Message{Text(RoleUser, "t")}, "doc_title", json.RawMessage(`{}`), &out)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeExtractionFailed, apperrors.GetCode(err))
}
