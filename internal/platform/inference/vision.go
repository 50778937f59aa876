package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Prediction is a single image-classification label with its score.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// VisionClient calls a hosted image-classification endpoint.
type VisionClient struct {
	clientBase
	baseURL string
	token   string
	model   string
}

// NewVisionClient creates a client for the given model.
func NewVisionClient(baseURL, token, model string, opts ...Option) *VisionClient {
	return &VisionClient{
		clientBase: newClientBase(opts...),
		baseURL:    baseURL,
		token:      token,
		model:      model,
	}
}

// ClassifyImage sends raw image bytes and returns predictions ranked by
// descending score.
func (c *VisionClient) ClassifyImage(ctx context.Context, image []byte) ([]Prediction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image data is required")
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/octet-stream")
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

	var out []Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("vision endpoint returned no predictions")
	}
	return out, nil
}
