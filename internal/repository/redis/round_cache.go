package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conecta4/server/internal/domain"
)

// RoundCache keeps rounds as JSON under round:<id> and publishes every new
// board string on round:<id>:board.
type RoundCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoundCache(client *redis.Client, ttl time.Duration) *RoundCache {
	return &RoundCache{client: client, ttl: ttl}
}

func roundKey(id string) string {
	return "round:" + id
}

// BoardChannel is the pub/sub channel carrying the boards of one round.
func BoardChannel(roundID string) string {
	return "round:" + roundID + ":board"
}

func (c *RoundCache) SetRound(ctx context.Context, r *domain.Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode round %s: %w", r.ID, err)
	}
	return c.client.Set(ctx, roundKey(r.ID), data, c.ttl).Err()
}

// GetRound returns nil, nil on a miss.
func (c *RoundCache) GetRound(ctx context.Context, id string) (*domain.Round, error) {
	data, err := c.client.Get(ctx, roundKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r domain.Round
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode cached round %s: %w", id, err)
	}
	return &r, nil
}

func (c *RoundCache) PublishBoard(ctx context.Context, roundID, board string) error {
	return c.client.Publish(ctx, BoardChannel(roundID), board).Err()
}
