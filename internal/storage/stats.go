package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CountCompletedWorkouts returns the number of completed workouts of a user.
func (db *DB) CountCompletedWorkouts(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*)::int FROM workouts WHERE user_id = $1 AND status = 'completed'`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting completed workouts: %w", err)
	}
	return n, nil
}

// SumCompletedDuration returns the total minutes of completed workouts.
func (db *DB) SumCompletedDuration(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(duration), 0)::int FROM workouts WHERE user_id = $1 AND status = 'completed'`, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing workout duration: %w", err)
	}
	return total, nil
}

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	Users              int64             `json:"users"`
	Exercises          int64             `json:"exercises"`
	Plans              int64             `json:"plans"`
	Workouts           int64             `json:"workouts"`
	CompletedWorkouts  int64             `json:"completed_workouts"`
	Achievements       int64             `json:"achievements"`
	EarliestWorkout    *time.Time        `json:"earliest_workout"`
	LatestWorkout      *time.Time        `json:"latest_workout"`
	AchievementsByName []AchievementStat `json:"achievements_by_name"`
}

// AchievementStat counts holders of one achievement.
type AchievementStat struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int64  `json:"count"`
}

// GetDataStats returns aggregate statistics across all users.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM exercises),
			(SELECT COUNT(*) FROM training_plans),
			(SELECT COUNT(*) FROM workouts),
			(SELECT COUNT(*) FROM workouts WHERE status = 'completed'),
			(SELECT COUNT(*) FROM achievements)
	`).Scan(&stats.Users, &stats.Exercises, &stats.Plans, &stats.Workouts,
		&stats.CompletedWorkouts, &stats.Achievements)
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}

	// Date range of workouts
	err = db.Pool.QueryRow(ctx,
		`SELECT MIN(date)::timestamptz, MAX(date)::timestamptz FROM workouts`,
	).Scan(&stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("querying date range: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT name, MIN(icon), COUNT(*)
		 FROM achievements
		 GROUP BY name
		 ORDER BY COUNT(*) DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying achievements by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s AchievementStat
		if err := rows.Scan(&s.Name, &s.Icon, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning achievement stat: %w", err)
		}
		stats.AchievementsByName = append(stats.AchievementsByName, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
