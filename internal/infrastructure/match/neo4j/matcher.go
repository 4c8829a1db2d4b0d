package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

// Matcher ranks immigration lawyers against a petition by walking the
// lawyer graph: visa-type coverage, field overlap and win history.
type Matcher struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*Matcher, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Matcher{driver: driver}, nil
}

func (m *Matcher) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}

const matchQuery = `
MATCH (l:Lawyer)-[:HANDLES]->(v:VisaType {code: $visaType})
OPTIONAL MATCH (l)-[:PRACTICES_IN]->(f:Field)
WITH l, collect(DISTINCT f.name) AS fields
WHERE $field = '' OR $field IN fields
OPTIONAL MATCH (l)-[:HANDLES]->(allv:VisaType)
WITH l, fields, collect(DISTINCT allv.code) AS visaTypes
WHERE $state = '' OR l.state = $state
RETURN l.id AS id,
       l.name AS name,
       l.firm AS firm,
       l.state AS state,
       l.cases_won AS casesWon,
       visaTypes,
       fields,
       (l.cases_won * 1.0 / (l.cases_total + 1)) AS matchScore
ORDER BY matchScore DESC
LIMIT $limit
`

func (m *Matcher) MatchLawyers(ctx context.Context, criteria domain.MatchCriteria) ([]domain.LawyerMatch, error) {
	visaType := criteria.VisaType
	if visaType == "" {
		visaType = "O-1"
	}
	limit := criteria.Limit
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, matchQuery, map[string]any{
			"visaType": visaType,
			"field":    criteria.Field,
			"state":    criteria.State,
			"limit":    limit,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("match lawyers query: %w", err)
	}

	rows, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected neo4j result type %T", records)
	}

	out := make([]domain.LawyerMatch, 0, len(rows))
	for _, rec := range rows {
		out = append(out, domain.LawyerMatch{
			ID:         stringValue(rec, "id"),
			Name:       stringValue(rec, "name"),
			Firm:       stringValue(rec, "firm"),
			State:      stringValue(rec, "state"),
			CasesWon:   intValue(rec, "casesWon"),
			VisaTypes:  stringSliceValue(rec, "visaTypes"),
			Fields:     stringSliceValue(rec, "fields"),
			MatchScore: floatValue(rec, "matchScore"),
		})
	}
	return out, nil
}

func stringValue(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intValue(rec *neo4j.Record, key string) int {
	if v, ok := rec.Get(key); ok {
		if n, ok := v.(int64); ok {
			return int(n)
		}
	}
	return 0
}

func floatValue(rec *neo4j.Record, key string) float64 {
	if v, ok := rec.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func stringSliceValue(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
