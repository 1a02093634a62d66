package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/model"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository"
)

var _ repository.TurnCache = (*Client)(nil)

// Key patterns for cached game data.
func stateKey(gameID string) string   { return "game:" + gameID + ":state" }
func resultsKey(gameID string) string { return "game:" + gameID + ":results" }

// SetState stores the current board JSON.
func (c *Client) SetState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), c.ttl).Err()
}

// GetState retrieves the current board JSON, or nil if none is cached.
func (c *Client) GetState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return json.RawMessage(data), nil
}

// AppendResults adds entries to the end of the game's cached result log.
func (c *Client) AppendResults(ctx context.Context, gameID string, entries []model.ResultEntry) error {
	vals := make([]any, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		vals = append(vals, b)
	}
	if len(vals) == 0 {
		return nil
	}
	key := resultsKey(gameID)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, vals...)
		if c.ttl > 0 {
			p.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append results: %w", err)
	}
	return nil
}

// Results returns the cached result log in order.
func (c *Client) Results(ctx context.Context, gameID string) ([]model.ResultEntry, error) {
	raw, err := c.rdb.LRange(ctx, resultsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}
	out := make([]model.ResultEntry, 0, len(raw))
	for _, s := range raw {
		var e model.ResultEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear removes all cached data for a game.
func (c *Client) Clear(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID), resultsKey(gameID)).Err()
}
