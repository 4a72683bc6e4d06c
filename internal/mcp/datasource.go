package mcp

import (
	"context"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// DataSource abstracts the engine for MCP tools. Both Local (direct database
// access) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	CreatePlan(ctx context.Context, req engine.PlanRequest) (*engine.PlanResult, error)
	CreateWorkout(ctx context.Context, req engine.WorkoutRequest) (*engine.WorkoutResult, error)
	ActivePlan(ctx context.Context, userID uuid.UUID) (*engine.ActivePlan, error)
	UserStats(ctx context.Context, userID uuid.UUID) (engine.Stats, error)
	UpdateWorkout(ctx context.Context, workoutID uuid.UUID, upd engine.WorkoutUpdate) (*engine.UpdateResult, error)
	CheckAchievements(ctx context.Context, userID uuid.UUID) (*engine.AchievementResult, error)
	Achievements(ctx context.Context, userID uuid.UUID) ([]engine.Achievement, error)
	WorkoutHistory(ctx context.Context, userID uuid.UUID, limit int) ([]engine.HistoryEntry, error)
	WorkoutDetails(ctx context.Context, workoutID uuid.UUID) (*engine.WorkoutDetails, error)
	Regularity(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]string, error)
	TrainingSummary(ctx context.Context, userID uuid.UUID, start, end *time.Time, bucket string) ([]models.TrainingSummaryPeriod, error)
	Exercises(ctx context.Context, muscles, inventory []string) ([]models.Exercise, error)
}

// Local serves MCP tools straight from an engine.
type Local struct {
	*engine.Engine
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = Local{}

// UserStats never fails locally; failed sub-aggregates read as zero.
func (l Local) UserStats(ctx context.Context, userID uuid.UUID) (engine.Stats, error) {
	return l.Engine.UserStats(ctx, userID), nil
}
