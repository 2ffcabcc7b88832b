package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, reply)
	}))
}

func TestDiscoverTopics(t *testing.T) {
	srv := chatServer(t, `["Intro", "Methods", "intro", "Ch.1 Basics"]`)
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	topics, err := tc.DiscoverTopics(context.Background(), "document text")
	require.NoError(t, err)
	// Sanitized, deduplicated, order preserved.
	assert.Equal(t, []string{"intro", "methods", "ch-1-basics"}, topics)
}

func TestDiscoverTopicsCodeFence(t *testing.T) {
	srv := chatServer(t, "```json\n[\"alpha\", \"beta\"]\n```")
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	topics, err := tc.DiscoverTopics(context.Background(), "document text")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, topics)
}

func TestDiscoverTopicsCapsAtMax(t *testing.T) {
	srv := chatServer(t, `["a","b","c","d","e"]`)
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 3)
	topics, err := tc.DiscoverTopics(context.Background(), "document text")
	require.NoError(t, err)
	assert.Len(t, topics, 3)
}

func TestDiscoverTopicsNoArray(t *testing.T) {
	srv := chatServer(t, "I could not find any topics, sorry.")
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	_, err := tc.DiscoverTopics(context.Background(), "document text")
	require.Error(t, err)
}

func TestDiscoverTopicsRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	_, err := tc.DiscoverTopics(context.Background(), "document text")
	require.Error(t, err)
}

func TestClassifyQuery(t *testing.T) {
	srv := chatServer(t, `"Methods"`)
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	topic, err := tc.ClassifyQuery(context.Background(), "how was the study run?", []string{"intro", "methods"})
	require.NoError(t, err)
	assert.Equal(t, "methods", topic)
}

func TestClassifyQueryOffListTopicIsSanitized(t *testing.T) {
	srv := chatServer(t, "Ch.2 Results")
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	topic, err := tc.ClassifyQuery(context.Background(), "what were the results?", []string{"intro"})
	require.NoError(t, err)
	// The counter map is append-friendly, but the key must still be safe.
	assert.Equal(t, "ch-2-results", topic)
}

func TestClassifyQueryEmptyReply(t *testing.T) {
	srv := chatServer(t, "...")
	defer srv.Close()

	tc := NewTopicClassifier(NewChatClient(), ChatConfig{BaseURL: srv.URL, Model: "m"}, 8)
	_, err := tc.ClassifyQuery(context.Background(), "q", []string{"intro"})
	require.Error(t, err)
}
