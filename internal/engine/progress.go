package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// PlanWorkout is a plan session as listed with the active plan.
type PlanWorkout struct {
	ID     uuid.UUID     `json:"id"`
	Date   string        `json:"date"`
	Status models.Status `json:"status"`
}

// ActivePlan is the user's most recent plan with recomputed progress.
type ActivePlan struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Goal      models.Goal   `json:"goal"`
	Level     models.Level  `json:"level"`
	Frequency int           `json:"frequency"`
	Duration  int           `json:"duration"`
	Progress  float64       `json:"progress"`
	Workouts  []PlanWorkout `json:"workouts"`
}

// Stats is the aggregate view shown on the home screen.
type Stats struct {
	Workouts  int     `json:"workouts"`
	TotalTime int     `json:"total_time"`
	Progress  float64 `json:"progress"`
	Badges    int     `json:"badges"`
}

// Progress returns the percentage of completed workouts, 0 for none.
func Progress(workouts []models.WorkoutRow) float64 {
	if len(workouts) == 0 {
		return 0
	}
	completed := 0
	for _, w := range workouts {
		if w.Status == models.StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(workouts)) * 100
}

// ActivePlan loads the user's most recently created plan and recomputes its
// progress from the workout statuses. The stored progress is only written
// when it changed; a failed write is logged and does not fail the read.
func (e *Engine) ActivePlan(ctx context.Context, userID uuid.UUID) (*ActivePlan, error) {
	plan, err := e.store.LatestPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting latest plan: %w", err)
	}
	workouts, err := e.store.ListPlanWorkouts(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("listing plan workouts: %w", err)
	}

	progress := Progress(workouts)
	if progress != plan.Progress {
		if err := e.store.UpdatePlanProgress(ctx, plan.ID, progress); err != nil {
			e.log.Warn("storing plan progress failed", "plan_id", plan.ID, "error", err)
		}
	}

	active := &ActivePlan{
		ID:        plan.ID,
		Name:      plan.Name,
		Goal:      plan.Goal,
		Level:     plan.Level,
		Frequency: plan.Frequency,
		Duration:  plan.Duration,
		Progress:  progress,
		Workouts:  make([]PlanWorkout, 0, len(workouts)),
	}
	for _, w := range workouts {
		active.Workouts = append(active.Workouts, PlanWorkout{ID: w.ID, Date: FormatDate(w.Date), Status: w.Status})
	}
	return active, nil
}

// UserStats aggregates completed workouts, their total duration, the latest
// plan's stored progress and the badge count. Each read is independent and
// degrades to zero on failure, so UserStats never fails.
func (e *Engine) UserStats(ctx context.Context, userID uuid.UUID) Stats {
	var stats Stats
	var err error

	if stats.Workouts, err = e.store.CountCompletedWorkouts(ctx, userID); err != nil {
		e.log.Warn("counting completed workouts failed", "user_id", userID, "error", err)
		stats.Workouts = 0
	}

	if stats.TotalTime, err = e.store.SumCompletedDuration(ctx, userID); err != nil {
		e.log.Warn("summing workout duration failed", "user_id", userID, "error", err)
		stats.TotalTime = 0
	}

	plan, err := e.store.LatestPlan(ctx, userID)
	switch {
	case err == nil:
		stats.Progress = plan.Progress
	case errors.Is(err, ErrNotFound):
	default:
		e.log.Warn("getting plan progress failed", "user_id", userID, "error", err)
	}

	if stats.Badges, err = e.store.CountAchievements(ctx, userID); err != nil {
		e.log.Warn("counting achievements failed", "user_id", userID, "error", err)
		stats.Badges = 0
	}

	return stats
}
