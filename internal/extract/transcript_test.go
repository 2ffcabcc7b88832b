package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=bMknfKXIFA8", "bMknfKXIFA8"},
		{"https://youtu.be/bMknfKXIFA8", "bMknfKXIFA8"},
		{"https://www.youtube.com/embed/bMknfKXIFA8", "bMknfKXIFA8"},
		{"https://www.youtube.com/shorts/bMknfKXIFA8", "bMknfKXIFA8"},
		{"bMknfKXIFA8", "bMknfKXIFA8"},
	}
	for _, tc := range cases {
		got, err := parseVideoID(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseVideoID("")
	assert.Error(t, err)
	_, err = parseVideoID("https://example.com/video")
	assert.Error(t, err)
}

func TestTranscriptFetchOrdersSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("v"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="4.2" dur="2.0">world &amp; beyond</text>
  <text start="0.0" dur="4.2">hello</text>
</transcript>`))
	}))
	defer srv.Close()

	c := NewTranscriptClient(srv.URL, "en")
	text, err := c.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "hello world & beyond", text)
}

func TestTranscriptFetchEmptyBodyMeansDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewTranscriptClient(srv.URL, "en")
	_, err := c.Fetch(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestTranscriptFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewTranscriptClient(srv.URL, "en")
	_, err := c.Fetch(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestTranscriptFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTranscriptClient(srv.URL, "en")
	_, err := c.Fetch(context.Background(), "abc123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTranscript)
}
