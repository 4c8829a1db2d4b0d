package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

func TestSectionWriterBuildsEvidencePrompt(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"drafted section"}`))
	}))
	defer server.Close()

	writer := NewSectionWriter(New(server.URL, "gen", "embed"))
	text, err := writer.GenerateSection(
		context.Background(),
		"awards",
		map[string]string{"resume": "decade of awards"},
		[]domain.RetrievedChunk{{Filename: "awards.pdf", Doctype: "awards", Text: "Best Paper 2024", Score: 0.97}},
	)
	if err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	if text != "drafted section" {
		t.Fatalf("unexpected section text %q", text)
	}
	for _, want := range []string{"awards", "decade of awards", "Best Paper 2024"} {
		if !strings.Contains(capturedPrompt, want) {
			t.Fatalf("prompt missing %q: %s", want, capturedPrompt)
		}
	}
}

func TestAnalyzerParsesAssessmentJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"criteria\":[\"awards\"],\"strength\":\"strong\",\"summary\":\"Major prize.\"}"}`))
	}))
	defer server.Close()

	analyzer := NewAnalyzer(New(server.URL, "gen", "embed"))
	assessment, err := analyzer.Analyze(context.Background(), "awards", "prize certificate text")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if assessment.Strength != "strong" || len(assessment.Criteria) != 1 {
		t.Fatalf("unexpected assessment %+v", assessment)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("502 should be classified temporary, got %v", err)
	}
}
