package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIAuditorAudit(t *testing.T) {
	candidateText := `{"barrier_description":"narrow doorway","recommended_fix":"widen to 36 inches","accessibility_score":60,"generation_prompt":"a widened doorway","mask_prompt":"the doorway frame"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if format, ok := payload["response_format"].(map[string]any); !ok || format["type"] != "json_object" {
			t.Error("request does not pin json_object response format")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": candidateText}},
			},
		})
	}))
	defer srv.Close()

	auditor, err := NewOpenAIAuditor(OpenAIOptions{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIAuditor() unexpected error: %v", err)
	}

	data, err := auditor.Audit(context.Background(), AuditRequest{ImageURL: "https://cdn.example.com/a.jpg"})
	if err != nil {
		t.Fatalf("Audit() unexpected error: %v", err)
	}
	if data.BarrierDescription != "narrow doorway" {
		t.Fatalf("BarrierDescription = %q", data.BarrierDescription)
	}
	if data.AccessibilityScore != 60 {
		t.Fatalf("AccessibilityScore = %d, want 60", data.AccessibilityScore)
	}
	if !data.Eligible() {
		t.Fatal("audit with both prompts should be eligible")
	}
}

func TestOpenAIAuditorNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	auditor, err := NewOpenAIAuditor(OpenAIOptions{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIAuditor() unexpected error: %v", err)
	}
	if _, err := auditor.Audit(context.Background(), AuditRequest{ImageURL: "https://cdn.example.com/a.jpg"}); err == nil {
		t.Fatal("Audit() expected error for empty choices, got nil")
	}
}

func TestNewOpenAIAuditorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIAuditor(OpenAIOptions{}); err == nil {
		t.Fatal("NewOpenAIAuditor() without key expected error, got nil")
	}
}
