// Package llm implements the parameter extraction port against an
// OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bedesign/internal/config"
	"bedesign/internal/errors"
	"bedesign/ports"
)

const systemPrompt = `You are a pharmacokinetics data extraction assistant. ` +
	`You read study abstracts and return only what the text states. ` +
	`Never infer or estimate values that are not present. Respond with valid JSON.`

const extractionPromptTemplate = `Extract pharmacokinetic parameters for the drug "%s" from the abstract below.

Report each parameter you find as an object with "name", "value" and "unit".
Recognized parameter names: Cmax, AUC, Tmax, T1/2, CV_intra.

Rules:
- Report values exactly as stated; convert only trivially (e.g. minutes to hours for T1/2 and Tmax).
- Standard units: ng/mL for Cmax, ng*h/mL for AUC, hours for Tmax and T1/2, percent for CV_intra.
- CV_intra means the intra-subject (within-subject) coefficient of variation, usually from a crossover study.
- If a parameter is not mentioned, omit it. Do not guess.

Respond with a JSON object: {"parameters": [{"name": "...", "value": 0.0, "unit": "..."}]}

Abstract:
%s`

// Extractor calls a chat completions endpoint to pull PK values from text
type Extractor struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewExtractor creates an extractor from extraction configuration
func NewExtractor(cfg config.ExtractionConfig) *Extractor {
	return &Extractor{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ ports.ParameterExtractorPort = (*Extractor)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type extractionPayload struct {
	Parameters []ports.ExtractedParameter `json:"parameters"`
}

// Extract asks the model for PK parameters found in one abstract.
// An abstract with no recognizable parameters yields an empty slice.
func (e *Extractor) Extract(ctx context.Context, abstract string, inn string) ([]ports.ExtractedParameter, error) {
	reqBody := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(extractionPromptTemplate, inn, abstract)},
		},
		Temperature:    e.temperature,
		MaxTokens:      e.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errors.CollaboratorUnavailable("parameter extraction", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.CollaboratorUnavailable("parameter extraction", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.CollaboratorUnavailable("parameter extraction",
			fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, errors.CollaboratorUnavailable("parameter extraction",
			fmt.Errorf("malformed completion response: %w", err))
	}
	if chatResp.Error != nil {
		return nil, errors.CollaboratorUnavailable("parameter extraction",
			fmt.Errorf("completion error: %s", chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.CollaboratorUnavailable("parameter extraction",
			fmt.Errorf("completion returned no choices"))
	}

	content := stripCodeFences(chatResp.Choices[0].Message.Content)

	var payload extractionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		// A non-JSON reply means the model drifted; treat the abstract
		// as yielding nothing rather than failing the whole search stage
		return nil, nil
	}
	return payload.Parameters, nil
}

// stripCodeFences removes markdown fencing some models wrap JSON in
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
