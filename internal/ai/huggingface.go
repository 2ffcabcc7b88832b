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

// HuggingFaceConfig holds API settings for the feature-extraction model.
type HuggingFaceConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// HuggingFaceClient calls the hosted inference API's feature-extraction
// pipeline to embed text. There is no local fallback: a remote failure is a
// failure, never substituted with synthetic vectors.
type HuggingFaceClient struct {
	cfg        HuggingFaceConfig
	httpClient *http.Client
}

func NewHuggingFaceClient(cfg HuggingFaceConfig) *HuggingFaceClient {
	return &HuggingFaceClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Model reports the model identity used to tag stored embeddings.
func (c *HuggingFaceClient) Model() string {
	return c.cfg.Model
}

// Embed returns the embedding vector for the given non-empty text. The API
// returns either a flat vector or a one-element batch wrapping one; both are
// normalized to the flat form. Identical input yields identical output.
func (c *HuggingFaceClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	reqBody := map[string]interface{}{
		"inputs": text,
		"options": map[string]interface{}{
			"wait_for_model": true,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build embedding request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding response status %d: %s", resp.StatusCode, string(raw))
	}

	// The model signals overload or cold-start trouble in an error field
	// even with a 200.
	var remoteErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &remoteErr); err == nil && remoteErr.Error != "" {
		return nil, fmt.Errorf("embedding model error: %s", remoteErr.Error)
	}

	vector, err := decodeVector(raw)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return vector, nil
}

// decodeVector accepts [0.1, ...] or [[0.1, ...]] payloads.
func decodeVector(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty embedding batch in response")
		}
		return nested[0], nil
	}
	return nil, fmt.Errorf("unexpected embedding response shape: %s", truncateForLog(raw))
}

func truncateForLog(raw []byte) string {
	const max = 200
	s := string(raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
