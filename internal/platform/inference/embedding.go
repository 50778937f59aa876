package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

// EmbeddingClient calls a hosted sentence-embedding endpoint.
type EmbeddingClient struct {
	clientBase
	baseURL string
	token   string
	model   string
}

// NewEmbeddingClient creates a client for the given model.
func NewEmbeddingClient(baseURL, token, model string, opts ...Option) *EmbeddingClient {
	return &EmbeddingClient{
		clientBase: newClientBase(opts...),
		baseURL:    baseURL,
		token:      token,
		model:      model,
	}
}

type embedRequest struct {
	Inputs string `json:"inputs"`
}

// Embed returns the embedding vector for the given text. The endpoint may
// wrap the vector in an extra batch dimension; both shapes are accepted.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	body, err := json.Marshal(embedRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	return nil, fmt.Errorf("embedding endpoint returned unexpected shape")
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched lengths or zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
