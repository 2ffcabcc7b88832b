package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, payload string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body.Inputs)
		w.WriteHeader(status)
		w.Write([]byte(payload))
	}))
}

func TestEmbedFlatVector(t *testing.T) {
	srv := embeddingServer(t, `[0.1, 0.2, 0.3]`, http.StatusOK)
	defer srv.Close()

	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: srv.URL, Model: "intfloat/e5-small-v2"})
	vec, err := c.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedNestedVector(t *testing.T) {
	srv := embeddingServer(t, `[[0.5, -0.5]]`, http.StatusOK)
	defer srv.Close()

	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: srv.URL, Model: "m"})
	vec, err := c.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, vec)
}

func TestEmbedEmptyInput(t *testing.T) {
	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: "http://unused", Model: "m"})
	_, err := c.Embed(context.Background(), "   ")
	require.Error(t, err)
}

func TestEmbedRemoteErrorField(t *testing.T) {
	srv := embeddingServer(t, `{"error": "model overloaded"}`, http.StatusOK)
	defer srv.Close()

	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: srv.URL, Model: "m"})
	_, err := c.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestEmbedNon2xx(t *testing.T) {
	srv := embeddingServer(t, `{"error": "loading"}`, http.StatusServiceUnavailable)
	defer srv.Close()

	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: srv.URL, Model: "m"})
	_, err := c.Embed(context.Background(), "some text")
	require.Error(t, err)
}

func TestEmbedEmptyPayload(t *testing.T) {
	srv := embeddingServer(t, `[]`, http.StatusOK)
	defer srv.Close()

	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: srv.URL, Model: "m"})
	_, err := c.Embed(context.Background(), "some text")
	require.Error(t, err)
}

func TestEmbedDeterministicForSameInput(t *testing.T) {
	srv := embeddingServer(t, `[0.25, 0.75]`, http.StatusOK)
	defer srv.Close()

	c := NewHuggingFaceClient(HuggingFaceConfig{BaseURL: srv.URL, Model: "m"})
	first, err := c.Embed(context.Background(), "identical text")
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), "identical text")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
