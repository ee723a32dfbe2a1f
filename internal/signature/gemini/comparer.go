// Package gemini implements port.SignatureComparer using Google's Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"veridoc/internal/config"
	"veridoc/internal/port"
	"veridoc/internal/signature"
)

const (
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Comparer calls the Gemini API with both signature images inline and asks
// for a JSON similarity verdict.
type Comparer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewComparer creates a Gemini-based signature comparer.
func NewComparer(cfg *config.ComparerConfig) *Comparer {
	return newComparer(cfg, "")
}

// NewComparerWithEndpoint creates a comparer pointing at a custom API endpoint (for testing).
func NewComparerWithEndpoint(cfg *config.ComparerConfig, endpoint string) *Comparer {
	return newComparer(cfg, endpoint)
}

func newComparer(cfg *config.ComparerConfig, endpoint string) *Comparer {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Comparer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Comparer) Compare(ctx context.Context, input port.CompareInput) (*port.CompareOutput, error) {
	if c.apiKey == "" {
		return nil, signature.ErrNoAPIKey
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeTypeOrDefault(input.CapturedType),
							"data":      base64.StdEncoding.EncodeToString(input.CapturedImage),
						},
					},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeTypeOrDefault(input.ReferenceType),
							"data":      base64.StdEncoding.EncodeToString(input.ReferenceImage),
						},
					},
					{
						"text": input.Task + "\n\nRespond with JSON: " +
							`{"similarity_score": <0.0-1.0>, "recommendation": "<short verdict>", "analysis": "<reasoning>"}`,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  2048,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, signature.NewAIError(fmt.Errorf("calling gemini API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, signature.NewAIError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, signature.NewAIError(fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500)))
	}

	return parseResponse(respBody)
}

func mimeTypeOrDefault(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/png":
		return contentType
	default:
		return "image/png"
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte) (*port.CompareOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, signature.NewParseError(fmt.Errorf("unmarshaling response: %w", err))
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, signature.NewParseError(fmt.Errorf("empty response from API"))
	}

	text := resp.Candidates[0].Content.Parts[0].Text

	var parsed struct {
		SimilarityScore *float64 `json:"similarity_score"`
		Recommendation  string   `json:"recommendation"`
		Analysis        string   `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, signature.NewParseError(fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, truncate(text, 500)))
	}
	if parsed.SimilarityScore == nil {
		return nil, signature.NewParseError(fmt.Errorf("response missing similarity_score (raw: %s)", truncate(text, 500)))
	}

	score := *parsed.SimilarityScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &port.CompareOutput{
		SimilarityScore: score,
		Recommendation:  parsed.Recommendation,
		Analysis:        parsed.Analysis,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
