// Package cache implements the Redis-backed leaderboard snapshot cache
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learntrack/backend/internal/models"
)

// leaderboardKey is the Redis key holding the serialized snapshot
const leaderboardKey = "leaderboard:snapshot"

// LeaderboardCache stores a computed leaderboard snapshot in Redis with a
// TTL. The leaderboard is eventually consistent: a snapshot may lag writes
// by up to the TTL.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the cached snapshot. A cache miss returns found=false and no
// error.
func (c *LeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get leaderboard snapshot: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal leaderboard snapshot: %w", err)
	}

	return entries, true, nil
}

// Set stores the snapshot with the configured TTL
func (c *LeaderboardCache) Set(ctx context.Context, entries []models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard snapshot: %w", err)
	}

	if err := c.client.Set(ctx, leaderboardKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set leaderboard snapshot: %w", err)
	}

	return nil
}
