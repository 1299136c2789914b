package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Model: "gemini-2.0-flash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	_, err = NewClient(Config{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")

	client, err := NewClient(Config{APIKey: "key", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", client.Model())
}

func TestClient_Generate(t *testing.T) {
	var (
		gotPath   string
		gotAPIKey string
		gotBody   generateRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-Goog-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "{\"score\":0.8,\"rationale\":\"Good\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 25}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "key", Model: "gemini-2.0-flash", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := client.Generate(context.Background(), "grade this")
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "key", gotAPIKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "grade this", gotBody.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.2, gotBody.GenerationConfig.Temperature, 1e-9)
	assert.Equal(t, 200, gotBody.GenerationConfig.MaxOutputTokens)

	assert.Equal(t, `{"score":0.8,"rationale":"Good"}`, reply.Text)
	assert.Equal(t, 120, reply.InputTokens)
	assert.Equal(t, 25, reply.OutputTokens)
}

func TestClient_Generate_JoinsParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "{\"score\":"}, {"text": "0.5}"}]}}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "key", Model: "gemini-2.0-flash", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"score":0.5}`, reply.Text)
}

func TestClient_Generate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":429,"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "key", Model: "gemini-2.0-flash", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Generate_APIErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad model","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "key", Model: "gemini-2.0-flash", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_ARGUMENT")
	assert.Contains(t, err.Error(), "bad model")
}
