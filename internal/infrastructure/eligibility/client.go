package eligibility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/resilience"
)

// Client talks to the eligibility scoring backend. One call per
// submission: it grades the payload, returns the go/no-go decision and
// the per-document summaries the rest of the pipeline reuses.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) WithExecutor(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

func (c *Client) AnalyzePetition(
	ctx context.Context,
	caseID string,
	payload domain.PetitionPayload,
) (*domain.EligibilityDecision, error) {
	var decision domain.EligibilityDecision

	call := func(callCtx context.Context) error {
		return c.postAnalyze(callCtx, caseID, payload, &decision)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "eligibility.analyze", call, classifyEligibilityError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("eligibility analyze", err)
	}
	return &decision, nil
}

func (c *Client) postAnalyze(
	ctx context.Context,
	caseID string,
	payload domain.PetitionPayload,
	out *domain.EligibilityDecision,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal analyze request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/petitions/%s/analyze", c.baseURL, caseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("eligibility analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "analyze",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode analyze response: %w", err)
	}
	return nil
}
