package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func imageResponse(data []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"image/jpeg"}},
		Body:       io.NopCloser(strings.NewReader(string(data))),
	}
}

func TestGeminiAuditorAudit(t *testing.T) {
	candidateText := `{"barrier_description":"concrete stairs at the entrance","recommended_fix":"install a ramp","cost_estimate":"$1,500 - $3,000","compliance_notes":"1:12 slope ratio","accessibility_score":35,"generation_prompt":"a wide concrete ramp with handrails","mask_prompt":"the concrete stairs leading to the porch"}`

	var sawPrompt, sawInline bool
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodGet {
			return imageResponse([]byte{0xFF, 0xD8, 0xFF, 0xE0}), nil
		}
		if got := req.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		if !strings.Contains(req.URL.Path, "models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %q", req.URL.Path)
		}
		var payload geminiRequest
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		for _, part := range payload.Contents[0].Parts {
			if strings.Contains(part.Text, "accessibility architect") {
				sawPrompt = true
			}
			if part.InlineData != nil && part.InlineData.MimeType == "image/jpeg" {
				sawInline = true
			}
		}
		if payload.GenerationConfig == nil || payload.GenerationConfig.ResponseMimeType != "application/json" {
			t.Error("request does not pin JSON response mime type")
		}

		body, _ := json.Marshal(geminiResponse{Candidates: []struct {
			Content geminiContent `json:"content"`
		}{{Content: geminiContent{Parts: []geminiPart{{Text: candidateText}}}}}})
		return jsonResponse(http.StatusOK, string(body)), nil
	})}

	auditor, err := NewGeminiAuditor(GeminiOptions{APIKey: "test-key", HTTPClient: client})
	if err != nil {
		t.Fatalf("NewGeminiAuditor() unexpected error: %v", err)
	}

	data, err := auditor.Audit(context.Background(), AuditRequest{ImageURL: "https://cdn.example.com/a.jpg"})
	if err != nil {
		t.Fatalf("Audit() unexpected error: %v", err)
	}
	if !sawPrompt {
		t.Error("request body missing the audit prompt")
	}
	if !sawInline {
		t.Error("request body missing inline image data")
	}
	if data.BarrierDescription != "concrete stairs at the entrance" {
		t.Fatalf("BarrierDescription = %q", data.BarrierDescription)
	}
	if data.AccessibilityScore != 35 {
		t.Fatalf("AccessibilityScore = %d, want 35", data.AccessibilityScore)
	}
	if !data.Eligible() {
		t.Fatal("audit with both prompts should be eligible")
	}
}

func TestGeminiAuditorAPIError(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodGet {
			return imageResponse([]byte{0xFF, 0xD8, 0xFF, 0xE0}), nil
		}
		return jsonResponse(http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded"}}`), nil
	})}

	auditor, err := NewGeminiAuditor(GeminiOptions{APIKey: "test-key", HTTPClient: client})
	if err != nil {
		t.Fatalf("NewGeminiAuditor() unexpected error: %v", err)
	}
	_, err = auditor.Audit(context.Background(), AuditRequest{ImageURL: "https://cdn.example.com/a.jpg"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("Audit() error = %v, want quota message", err)
	}
}

func TestGeminiAuditorNoCandidates(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodGet {
			return imageResponse([]byte{0xFF, 0xD8, 0xFF, 0xE0}), nil
		}
		return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
	})}

	auditor, err := NewGeminiAuditor(GeminiOptions{APIKey: "test-key", HTTPClient: client})
	if err != nil {
		t.Fatalf("NewGeminiAuditor() unexpected error: %v", err)
	}
	if _, err := auditor.Audit(context.Background(), AuditRequest{ImageURL: "https://cdn.example.com/a.jpg"}); err == nil {
		t.Fatal("Audit() expected error for empty candidates, got nil")
	}
}

func TestNewGeminiAuditorRequiresKey(t *testing.T) {
	if _, err := NewGeminiAuditor(GeminiOptions{}); err == nil {
		t.Fatal("NewGeminiAuditor() without key expected error, got nil")
	}
}
