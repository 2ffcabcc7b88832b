package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeneratorClient calls the answer generation service with a question, its
// embedding and the retrieved context.
type GeneratorClient struct {
	url        string
	httpClient *http.Client
}

func NewGeneratorClient(url string) *GeneratorClient {
	return &GeneratorClient{
		url:        url,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type generateRequest struct {
	Query     string    `json:"query"`
	Embedding []float32 `json:"embedding"`
	Context   string    `json:"context"`
}

type generateResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error,omitempty"`
}

// Answer produces a grounded natural-language answer. contextText is the
// concatenated text of the retrieved documents; it must be non-empty, the
// caller decides what to do when retrieval found nothing.
func (c *GeneratorClient) Answer(ctx context.Context, query string, embedding []float32, contextText string) (string, error) {
	reqBody := generateRequest{
		Query:     query,
		Embedding: embedding,
		Context:   contextText,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build generate request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generate response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse generate json failed: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("generator error: %s", parsed.Error)
	}
	answer := strings.TrimSpace(parsed.Answer)
	if answer == "" {
		return "", fmt.Errorf("empty answer in generate response")
	}
	return answer, nil
}
