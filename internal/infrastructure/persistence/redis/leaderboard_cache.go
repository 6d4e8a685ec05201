package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE IMPLEMENTATION
// A single sorted set maps user IDs to XP scores. Postgres profiles remain
// the source of truth; this set only accelerates rank and top-N reads and
// is rebuilt wholesale by the scheduler.
// ══════════════════════════════════════════════════════════════════════════════

// leaderboardKey is the sorted set holding user_id -> XP.
const leaderboardKey = PrefixLeaderboard + "xp"

// rebuildTempKey is the staging key used for atomic rebuilds.
const rebuildTempKey = PrefixLeaderboard + "xp:rebuild"

// LeaderboardCache implements leaderboard.Cache on a Redis sorted set.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// UpdateScore writes a member's XP score. Scores only ever grow, so a plain
// ZADD is safe even when events arrive out of order within one grant.
func (c *LeaderboardCache) UpdateScore(ctx context.Context, member leaderboard.Member) error {
	err := c.cache.Client().ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(member.XP),
		Member: string(member.UserID),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard cache: update score: %w", err)
	}

	return nil
}

// Top returns up to limit members ordered by XP descending.
func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]leaderboard.Member, error) {
	if limit <= 0 {
		return nil, nil
	}

	entries, err := c.cache.Client().ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard cache: read top: %w", err)
	}

	members := make([]leaderboard.Member, 0, len(entries))
	for _, entry := range entries {
		userID, ok := entry.Member.(string)
		if !ok {
			continue
		}
		members = append(members, leaderboard.Member{
			UserID: shared.UserID(userID),
			XP:     shared.XP(entry.Score),
		})
	}

	return members, nil
}

// RankOf returns the member's 1-based rank.
// Returns leaderboard.ErrNotRanked when the user is not in the set.
func (c *LeaderboardCache) RankOf(ctx context.Context, userID shared.UserID) (leaderboard.Rank, error) {
	rank, err := c.cache.Client().ZRevRank(ctx, leaderboardKey, string(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, leaderboard.ErrNotRanked
		}
		return 0, fmt.Errorf("leaderboard cache: read rank: %w", err)
	}

	return leaderboard.Rank(rank + 1), nil
}

// Size returns the number of ranked members.
func (c *LeaderboardCache) Size(ctx context.Context) (int, error) {
	count, err := c.cache.Client().ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return 0, fmt.Errorf("leaderboard cache: read size: %w", err)
	}

	return int(count), nil
}

// Rebuild replaces the whole set atomically: members are staged under a
// temporary key which is then renamed over the live one.
func (c *LeaderboardCache) Rebuild(ctx context.Context, members []leaderboard.Member) error {
	client := c.cache.Client()

	if len(members) == 0 {
		if err := client.Del(ctx, leaderboardKey).Err(); err != nil {
			return fmt.Errorf("leaderboard cache: clear: %w", err)
		}
		return nil
	}

	entries := make([]redis.Z, 0, len(members))
	for _, m := range members {
		entries = append(entries, redis.Z{
			Score:  float64(m.XP),
			Member: string(m.UserID),
		})
	}

	pipe := client.TxPipeline()
	pipe.Del(ctx, rebuildTempKey)
	pipe.ZAdd(ctx, rebuildTempKey, entries...)
	pipe.Rename(ctx, rebuildTempKey, leaderboardKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard cache: rebuild: %w", err)
	}

	return nil
}

// WarmedAt records the last rebuild time for observability.
func (c *LeaderboardCache) WarmedAt(ctx context.Context) (time.Time, error) {
	var warmedAt time.Time
	if err := c.cache.Get(ctx, PrefixLeaderboard+"warmed_at", &warmedAt); err != nil {
		return time.Time{}, err
	}
	return warmedAt, nil
}

// MarkWarmed stores the rebuild timestamp alongside the set.
func (c *LeaderboardCache) MarkWarmed(ctx context.Context, at time.Time) error {
	return c.cache.Set(ctx, PrefixLeaderboard+"warmed_at", at, 0)
}
