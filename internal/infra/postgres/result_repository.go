package postgres

import (
	"context"
	"fmt"
	"time"

	"formula-trivia/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultRepository stores level results and derives leaderboards from them.
// It implements both app.ResultRepository and app.LeaderboardRepository.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) SaveResult(ctx context.Context, result domain.LevelResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO level_results
			(player_id, display_name, level, attempt, outcome, correct_answers, wrong_answers,
			 penalty_ms, level_time_ms, total_time_ms, run_start_level, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		result.PlayerID, result.DisplayName, result.Level, result.Attempt, string(result.Outcome),
		result.CorrectAnswers, result.WrongAnswers,
		result.PenaltyTime.Milliseconds(), result.LevelTime.Milliseconds(), result.TotalTime.Milliseconds(),
		result.RunStartLevel, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (r *ResultRepository) PersonalBest(ctx context.Context, playerID string, level int) (time.Duration, bool, error) {
	var best *int64
	err := r.pool.QueryRow(ctx, `
		SELECT MIN(level_time_ms)
		FROM level_results
		WHERE player_id = $1 AND level = $2 AND outcome = $3`,
		playerID, level, string(domain.OutcomePerfect)).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("personal best: %w", err)
	}
	if best == nil {
		return 0, false, nil
	}
	return time.Duration(*best) * time.Millisecond, true, nil
}

// Submit is a no-op: every result is already in level_results.
func (r *ResultRepository) Submit(context.Context, domain.LevelResult) error {
	return nil
}

func (r *ResultRepository) Top(ctx context.Context, level, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT player_id, display_name, best
		FROM (
			SELECT DISTINCT ON (player_id) player_id, display_name, level_time_ms AS best
			FROM level_results
			WHERE level = $1 AND outcome = $2
			ORDER BY player_id, level_time_ms, completed_at
		) AS bests
		ORDER BY best, display_name
		LIMIT $3`, level, string(domain.OutcomePerfect), limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var (
			entry  domain.LeaderboardEntry
			bestMS int64
		)
		if err := rows.Scan(&entry.PlayerID, &entry.DisplayName, &bestMS); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entry.BestTime = time.Duration(bestMS) * time.Millisecond
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
