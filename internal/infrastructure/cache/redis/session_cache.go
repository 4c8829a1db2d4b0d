package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

// SessionCache persists per-case session artifacts: the document
// summaries and field statistics returned by the eligibility check, and
// the final pipeline result. Entries expire so abandoned cases do not
// accumulate.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr string, db int, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &SessionCache{client: client, ttl: ttl}
}

func (c *SessionCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *SessionCache) Close() error {
	return c.client.Close()
}

func (c *SessionCache) SaveSummaries(ctx context.Context, caseID string, summaries map[string]string) error {
	return c.setJSON(ctx, summariesKey(caseID), summaries)
}

func (c *SessionCache) Summaries(ctx context.Context, caseID string) (map[string]string, error) {
	var out map[string]string
	if err := c.getJSON(ctx, summariesKey(caseID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionCache) SaveFieldStats(ctx context.Context, caseID string, stats map[string]int) error {
	return c.setJSON(ctx, fieldStatsKey(caseID), stats)
}

func (c *SessionCache) FieldStats(ctx context.Context, caseID string) (map[string]int, error) {
	var out map[string]int
	if err := c.getJSON(ctx, fieldStatsKey(caseID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionCache) SaveResult(ctx context.Context, caseID string, result *domain.PetitionResult) error {
	return c.setJSON(ctx, resultKey(caseID), result)
}

func (c *SessionCache) Result(ctx context.Context, caseID string) (*domain.PetitionResult, error) {
	var out domain.PetitionResult
	if err := c.getJSON(ctx, resultKey(caseID), &out); err != nil {
		return nil, err
	}
	if out.CaseID == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *SessionCache) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// getJSON leaves dest untouched when the key is absent; callers treat
// the zero value as a cache miss.
func (c *SessionCache) getJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func summariesKey(caseID string) string  { return "case:" + caseID + ":summaries" }
func fieldStatsKey(caseID string) string { return "case:" + caseID + ":field_stats" }
func resultKey(caseID string) string     { return "case:" + caseID + ":result" }
