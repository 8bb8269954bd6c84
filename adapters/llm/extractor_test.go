package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bedesign/internal/config"
)

func newTestExtractor(serverURL string) *Extractor {
	return NewExtractor(config.ExtractionConfig{
		APIKey:      "test-key",
		BaseURL:     serverURL,
		Model:       "gpt-4o-mini",
		MaxTokens:   1000,
		Temperature: 0.1,
		Timeout:     5 * time.Second,
	})
}

func completionResponse(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected authorization header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("Expected system + user messages, got %d", len(req.Messages))
		}
		if !strings.Contains(req.Messages[1].Content, "ibuprofen") {
			t.Error("Prompt should name the drug")
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("Expected json_object response format")
		}

		w.Write([]byte(completionResponse(
			`{"parameters":[{"name":"CV_intra","value":24.5,"unit":"%"},{"name":"T1/2","value":2.1,"unit":"hours"}]}`)))
	}))
	defer server.Close()

	params, err := newTestExtractor(server.URL).Extract(context.Background(), "some abstract", "ibuprofen")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("Expected 2 parameters, got %d", len(params))
	}
	if params[0].Name != "CV_intra" || params[0].Value != 24.5 {
		t.Errorf("Unexpected first parameter %+v", params[0])
	}
}

// TestExtractFencedJSON verifies markdown-fenced replies still parse
func TestExtractFencedJSON(t *testing.T) {
	content := "```json\n{\"parameters\":[{\"name\":\"Cmax\",\"value\":150,\"unit\":\"ng/mL\"}]}\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(content)))
	}))
	defer server.Close()

	params, err := newTestExtractor(server.URL).Extract(context.Background(), "abstract", "ibuprofen")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(params) != 1 || params[0].Name != "Cmax" {
		t.Errorf("Unexpected parameters %+v", params)
	}
}

// TestExtractConversationalDrift verifies a non-JSON reply yields nothing
// rather than an error.
func TestExtractConversationalDrift(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("I could not find any parameters in this abstract.")))
	}))
	defer server.Close()

	params, err := newTestExtractor(server.URL).Extract(context.Background(), "abstract", "ibuprofen")
	if err != nil {
		t.Fatalf("Expected graceful handling, got %v", err)
	}
	if params != nil {
		t.Errorf("Expected no parameters, got %+v", params)
	}
}

func TestExtractServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "abstract", "ibuprofen")
	if err == nil {
		t.Fatal("Expected error for server failure")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.expected {
			t.Errorf("stripCodeFences(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}
