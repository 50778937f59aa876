package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Classification holds zero-shot results, ranked by descending score.
type Classification struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Top returns the highest-ranked label and its score.
func (c *Classification) Top() (string, float64) {
	if len(c.Labels) == 0 {
		return "", 0
	}
	return c.Labels[0], c.Scores[0]
}

// ClassifierClient calls a hosted zero-shot classification endpoint.
type ClassifierClient struct {
	clientBase
	baseURL string
	token   string
	model   string
}

// NewClassifierClient creates a client for the given model.
func NewClassifierClient(baseURL, token, model string, opts ...Option) *ClassifierClient {
	return &ClassifierClient{
		clientBase: newClientBase(opts...),
		baseURL:    baseURL,
		token:      token,
		model:      model,
	}
}

type classifyRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters classifyParameters `json:"parameters"`
}

type classifyParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

// Classify ranks the candidate labels against the input text.
func (c *ClassifierClient) Classify(ctx context.Context, text string, labels []string) (*Classification, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one candidate label is required")
	}

	body, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: classifyParameters{CandidateLabels: labels},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
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

	var out Classification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	if len(out.Labels) == 0 || len(out.Labels) != len(out.Scores) {
		return nil, fmt.Errorf("classifier returned malformed result")
	}
	return &out, nil
}
