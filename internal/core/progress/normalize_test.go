package progress

import (
	"fmt"
	"testing"
)

func TestNormalizeKnownStatuses(t *testing.T) {
	tests := []struct {
		status      string
		wantLabel   string
		wantPercent int
	}{
		{"pending", "Preparing to assess eligibility...", 5},
		{"completed", "Completing assessment...", 100},
		{"generating_rag_responses", "Evaluating qualifications...", 10},
		{"preparing_pdf_fill", "Preparing petition documentation...", 30},
		{"generating_rag_page_3_of_10", "Building Analysis (Step 3/10)", 30},
		{"generating_rag_page_1_of_3", "Building Analysis (Step 1/3)", 33},
		{"filling_pdf_page_2_of_8", "Preparing Petition (Page 2/8)", 25},
		{"filling_pdf_page_0_of_5", "Preparing Petition (Page 0/5)", 0},
		{"completed_pdf_fill_12_pages", "Finalizing qualification analysis...", 95},
		{"processing_resume", "Analyzing Resume for Evidence...", 25},
		{"processing_award_extra_suffix", "Analyzing Award for Evidence...", 25},
		{"processing_resume_page_2_of_10", "Analyzing Resume for Criteria (2/10)", 20},
		{"processing_resume_page_3_of_7", "Analyzing Resume for Criteria (3/7)", 42},
		{"processing_publication_analysis", "Evaluating Publication Against Standards...", 50},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			got := Normalize(tc.status, DisplayState{})
			if got.Label != tc.wantLabel {
				t.Fatalf("Normalize(%q) label = %q, want %q", tc.status, got.Label, tc.wantLabel)
			}
			if got.Percent != tc.wantPercent {
				t.Fatalf("Normalize(%q) percent = %d, want %d", tc.status, got.Percent, tc.wantPercent)
			}
		})
	}
}

func TestNormalizePageRatioUsesFloorDivision(t *testing.T) {
	for n := 1; n <= 20; n++ {
		for m := 1; m <= n; m++ {
			status := fmt.Sprintf("processing_resume_page_%d_of_%d", m, n)
			got := Normalize(status, DisplayState{})
			want := m * 100 / n
			if got.Percent != want {
				t.Fatalf("Normalize(%q) percent = %d, want %d", status, got.Percent, want)
			}
			wantFrag := fmt.Sprintf("(%d/%d)", m, n)
			if want := "Analyzing Resume for Criteria " + wantFrag; got.Label != want {
				t.Fatalf("Normalize(%q) label = %q, want %q", status, got.Label, want)
			}
		}
	}
}

func TestNormalizeFallbackPassesThroughRawStatus(t *testing.T) {
	prev := DisplayState{Label: "Building Analysis (Step 3/10)", Percent: 30}
	got := Normalize("some_unknown_value", prev)
	if got.Label != "some_unknown_value" {
		t.Fatalf("fallback label = %q, want raw status", got.Label)
	}
	if got.Percent != 30 {
		t.Fatalf("fallback percent = %d, want previous percent 30", got.Percent)
	}
}

func TestNormalizeZeroDenominatorFailsClosed(t *testing.T) {
	tests := []string{
		"generating_rag_page_3_of_0",
		"filling_pdf_page_1_of_0",
		"processing_resume_page_2_of_0",
	}
	prev := DisplayState{Label: "x", Percent: 42}
	for _, status := range tests {
		got := Normalize(status, prev)
		if got.Label != status {
			t.Fatalf("Normalize(%q) label = %q, want raw pass-through", status, got.Label)
		}
		if got.Percent != prev.Percent {
			t.Fatalf("Normalize(%q) percent = %d, want %d", status, got.Percent, prev.Percent)
		}
	}
}

func TestNormalizePageOverrunClampsTo100(t *testing.T) {
	tests := []struct {
		status    string
		wantLabel string
	}{
		{"filling_pdf_page_7_of_5", "Preparing Petition (Page 7/5)"},
		{"generating_rag_page_9_of_4", "Building Analysis (Step 9/4)"},
		{"processing_resume_page_6_of_5", "Analyzing Resume for Criteria (6/5)"},
	}
	for _, tc := range tests {
		got := Normalize(tc.status, DisplayState{})
		if got.Label != tc.wantLabel {
			t.Fatalf("Normalize(%q) label = %q, want %q", tc.status, got.Label, tc.wantLabel)
		}
		if got.Percent != 100 {
			t.Fatalf("Normalize(%q) percent = %d, want 100", tc.status, got.Percent)
		}
	}
}

func TestNormalizeDoctypeTitleCasing(t *testing.T) {
	got := Normalize("processing_recommendation_analysis", DisplayState{})
	if got.Label != "Evaluating Recommendation Against Standards..." {
		t.Fatalf("unexpected label %q", got.Label)
	}
}

func TestNormalizeNeverPanicsOnArbitraryInput(t *testing.T) {
	inputs := []string{
		"", "processing_", "_of_", "processing__page_1_of_2",
		"generating_rag_page_x_of_y", "completed_pdf_fill__pages",
		"processing_resume_page_99999999999999999999_of_3",
	}
	for _, status := range inputs {
		got := Normalize(status, DisplayState{Percent: 7})
		if got.Percent < 0 || got.Percent > 100 && got.Percent != 7 {
			t.Fatalf("Normalize(%q) produced out-of-range percent %d", status, got.Percent)
		}
	}
}
