package eligibility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

func TestAnalyzePetitionSendsBearerTokenAndDecodesDecision(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var payload domain.PetitionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.BeneficiaryName != "Dr. Vega" {
			t.Fatalf("payload not forwarded: %+v", payload)
		}

		_ = json.NewEncoder(w).Encode(domain.EligibilityDecision{
			CanProceed:        true,
			DocumentSummaries: map[string]string{"resume": "strong record"},
		})
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	decision, err := client.AnalyzePetition(context.Background(), "case-1", domain.PetitionPayload{
		BeneficiaryName: "Dr. Vega",
	})
	if err != nil {
		t.Fatalf("AnalyzePetition() error = %v", err)
	}
	if !decision.CanProceed || decision.DocumentSummaries["resume"] != "strong record" {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotPath != "/v1/petitions/case-1/analyze" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestAnalyzePetitionClassifiesServerErrorTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scoring backend down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.AnalyzePetition(context.Background(), "case-1", domain.PetitionPayload{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("503 should be temporary, got %v", err)
	}
	if !strings.Contains(err.Error(), "scoring backend down") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestAnalyzePetitionKeepsClientErrorPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown case", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.AnalyzePetition(context.Background(), "case-1", domain.PetitionPayload{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("422 must not be temporary: %v", err)
	}
}
