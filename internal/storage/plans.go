package storage

import (
	"context"
	"fmt"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// InsertPlan inserts a training plan row.
func (db *DB) InsertPlan(ctx context.Context, row models.PlanRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO training_plans (id, user_id, name, goal, level, frequency, duration, progress, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		row.ID, row.UserID, row.Name, string(row.Goal), string(row.Level),
		row.Frequency, row.Duration, row.Progress, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// LatestPlan returns the user's most recently created plan.
func (db *DB) LatestPlan(ctx context.Context, userID uuid.UUID) (*models.PlanRow, error) {
	var p models.PlanRow
	var goal, level string
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, goal, level, frequency, duration, progress, created_at
		 FROM training_plans
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID).Scan(&p.ID, &p.UserID, &p.Name, &goal, &level, &p.Frequency, &p.Duration, &p.Progress, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying latest plan: %w", notFound(err))
	}
	p.Goal = models.Goal(goal)
	p.Level = models.Level(level)
	return &p, nil
}

// UpdatePlanProgress stores a recomputed progress percentage.
func (db *DB) UpdatePlanProgress(ctx context.Context, planID uuid.UUID, progress float64) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE training_plans SET progress = $2 WHERE id = $1`, planID, progress)
	if err != nil {
		return fmt.Errorf("updating plan %s progress: %w", planID, err)
	}
	return nil
}
