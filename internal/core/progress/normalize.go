// Package progress translates raw pipeline status strings into the
// human-readable display state shown while a petition is processed.
package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode"
)

// DisplayState is the normalized view of one raw status observation.
type DisplayState struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// rule is one entry of the dispatch table: pattern, capture extraction,
// and display formatting. Rules are evaluated in order; the first match
// wins and exactly one rule fires per input.
type rule struct {
	pattern *regexp.Regexp
	render  func(groups []string, prev DisplayState) (DisplayState, bool)
}

var rules = []rule{
	{
		pattern: regexp.MustCompile(`^generating_rag_page_(\d+)_of_(\d+)$`),
		render: func(groups []string, _ DisplayState) (DisplayState, bool) {
			m, n, pct, ok := pageRatio(groups[1], groups[2])
			if !ok {
				return DisplayState{}, false
			}
			return DisplayState{
				Label:   fmt.Sprintf("Building Analysis (Step %d/%d)", m, n),
				Percent: pct,
			}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^filling_pdf_page_(\d+)_of_(\d+)$`),
		render: func(groups []string, _ DisplayState) (DisplayState, bool) {
			m, n, pct, ok := pageRatio(groups[1], groups[2])
			if !ok {
				return DisplayState{}, false
			}
			return DisplayState{
				Label:   fmt.Sprintf("Preparing Petition (Page %d/%d)", m, n),
				Percent: pct,
			}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^completed_pdf_fill_(\d+)_pages$`),
		render: func([]string, DisplayState) (DisplayState, bool) {
			return DisplayState{Label: "Finalizing qualification analysis...", Percent: 95}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^generating_rag_responses$`),
		render: func([]string, DisplayState) (DisplayState, bool) {
			return DisplayState{Label: "Evaluating qualifications...", Percent: 10}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^preparing_pdf_fill$`),
		render: func([]string, DisplayState) (DisplayState, bool) {
			return DisplayState{Label: "Preparing petition documentation...", Percent: 30}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^processing_([a-zA-Z0-9]+)_page_(\d+)_of_(\d+)$`),
		render: func(groups []string, _ DisplayState) (DisplayState, bool) {
			m, n, pct, ok := pageRatio(groups[2], groups[3])
			if !ok {
				return DisplayState{}, false
			}
			return DisplayState{
				Label:   fmt.Sprintf("Analyzing %s for Criteria (%d/%d)", titleCase(groups[1]), m, n),
				Percent: pct,
			}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^processing_([a-zA-Z0-9]+)_analysis$`),
		render: func(groups []string, _ DisplayState) (DisplayState, bool) {
			return DisplayState{
				Label:   fmt.Sprintf("Evaluating %s Against Standards...", titleCase(groups[1])),
				Percent: 50,
			}, true
		},
	},
	{
		// Prefix match: any suffix after the doctype token is accepted.
		pattern: regexp.MustCompile(`^processing_([a-zA-Z0-9]+)`),
		render: func(groups []string, _ DisplayState) (DisplayState, bool) {
			return DisplayState{
				Label:   fmt.Sprintf("Analyzing %s for Evidence...", titleCase(groups[1])),
				Percent: 25,
			}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^completed$`),
		render: func([]string, DisplayState) (DisplayState, bool) {
			return DisplayState{Label: "Completing assessment...", Percent: 100}, true
		},
	},
	{
		pattern: regexp.MustCompile(`^pending$`),
		render: func([]string, DisplayState) (DisplayState, bool) {
			return DisplayState{Label: "Preparing to assess eligibility...", Percent: 5}, true
		},
	},
}

// Normalize maps a raw status to its display state. It is total: an
// unrecognized status (including a malformed page ratio with n = 0)
// falls through to a raw-label pass-through that keeps the previous
// percent. It never panics; status values come from outside.
func Normalize(status string, prev DisplayState) DisplayState {
	for _, r := range rules {
		groups := r.pattern.FindStringSubmatch(status)
		if groups == nil {
			continue
		}
		state, ok := r.render(groups, prev)
		if !ok {
			break
		}
		return state
	}
	return DisplayState{Label: status, Percent: prev.Percent}
}

// pageRatio parses m and n and computes floor(100*m/n), clamped to 100
// since status strings arrive from outside and may claim m > n. A zero
// or unparsable denominator fails closed (treated as unrecognized).
func pageRatio(mRaw, nRaw string) (m, n, percent int, ok bool) {
	m, err := strconv.Atoi(mRaw)
	if err != nil {
		return 0, 0, 0, false
	}
	n, err = strconv.Atoi(nRaw)
	if err != nil || n == 0 {
		return 0, 0, 0, false
	}
	percent = m * 100 / n
	if percent > 100 {
		percent = 100
	}
	return m, n, percent, true
}

// titleCase uppercases only the first rune; the rest of the token is
// shown as the pipeline produced it.
func titleCase(token string) string {
	if token == "" {
		return token
	}
	runes := []rune(token)
	return string(unicode.ToUpper(runes[0])) + string(runes[1:])
}
