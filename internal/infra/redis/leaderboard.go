package redis

import (
	"context"
	"strconv"
	"time"

	"formula-trivia/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Leaderboard keeps each player's best perfect time per level in a sorted set.
//
//	ZADD LT leaderboard:level:{level} {millis} {playerID}
//	HSET leaderboard:names {playerID} {displayName}
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) Submit(ctx context.Context, result domain.LevelResult) error {
	if result.Outcome != domain.OutcomePerfect {
		return nil
	}
	pipe := l.client.TxPipeline()
	pipe.ZAddLT(ctx, l.key(result.Level), redis.Z{
		Score:  float64(result.LevelTime.Milliseconds()),
		Member: result.PlayerID,
	})
	pipe.HSet(ctx, l.namesKey(), result.PlayerID, result.DisplayName)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *Leaderboard) Top(ctx context.Context, level, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	scores, err := l.client.ZRangeWithScores(ctx, l.key(level), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	ids := make([]string, len(scores))
	for i, z := range scores {
		ids[i], _ = z.Member.(string)
	}
	names, err := l.client.HMGet(ctx, l.namesKey(), ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, len(scores))
	for i, z := range scores {
		name, _ := names[i].(string)
		entries[i] = domain.LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    ids[i],
			DisplayName: name,
			BestTime:    time.Duration(z.Score) * time.Millisecond,
		}
	}
	return entries, nil
}

func (l *Leaderboard) key(level int) string {
	return "leaderboard:level:" + strconv.Itoa(level)
}

func (l *Leaderboard) namesKey() string {
	return "leaderboard:names"
}
