package ollama

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

func buildAssessmentPrompt(doctype, text string) string {
	const maxSnippet = 8000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return fmt.Sprintf(`You are an immigration evidence analyst reviewing an O-1 petition exhibit.
The exhibit type is %q.
Return strict JSON object with keys:
criteria (array of strings naming the regulatory criteria this exhibit supports),
strength (one of "weak", "moderate", "strong"),
summary (string, at most three sentences).
No markdown, no extra keys.

Exhibit:
%s`, doctype, snippet)
}

func buildSectionPrompt(section string, summaries map[string]string, chunks []domain.RetrievedChunk) string {
	var evidence strings.Builder
	for idx, chunk := range chunks {
		evidence.WriteString(fmt.Sprintf(
			"[%d] file=%s doctype=%s score=%.3f\n%s\n\n",
			idx+1,
			chunk.Filename,
			chunk.Doctype,
			chunk.Score,
			chunk.Text,
		))
	}

	var background strings.Builder
	doctypes := make([]string, 0, len(summaries))
	for doctype := range summaries {
		doctypes = append(doctypes, doctype)
	}
	sort.Strings(doctypes)
	for _, doctype := range doctypes {
		background.WriteString(fmt.Sprintf("%s: %s\n", doctype, summaries[doctype]))
	}

	return fmt.Sprintf(`Draft the %q section of an O-1 visa petition.
Write in formal third person. Use only the evidence and background below.
If the evidence is insufficient for a claim, omit the claim.

Background:
%s
Evidence:
%s`, section, background.String(), evidence.String())
}
