package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GenerationConfig controls sampling on the generative endpoint.
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// safetySetting mirrors the generative API's harm-category thresholds.
type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// defaultSafetySettings block medium-and-above content across all four harm
// categories. Clinical prompts routinely trip looser thresholds, so these are
// fixed rather than configurable.
var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// GenerativeClient calls a Gemini-style generateContent REST endpoint.
type GenerativeClient struct {
	clientBase
	baseURL string
	apiKey  string
	model   string
	genCfg  GenerationConfig
}

// NewGenerativeClient creates a client for the given endpoint and model.
func NewGenerativeClient(baseURL, apiKey, model string, genCfg GenerationConfig, opts ...Option) *GenerativeClient {
	return &GenerativeClient{
		clientBase: newClientBase(opts...),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		genCfg:     genCfg,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the first candidate's text.
func (c *GenerativeClient) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		SafetySettings:   defaultSafetySettings,
		GenerationConfig: c.genCfg,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generative endpoint returned no candidates")
	}

	text := ""
	for _, p := range out.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}
