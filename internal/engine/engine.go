// Package engine generates workout plans and ad-hoc workouts, tracks their
// completion and evaluates progress statistics and achievements.
//
// Every operation is a request-scoped sequence of reads and writes against a
// Store. The engine holds no mutable state of its own.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoExercises is returned when plan generation finds an empty catalog.
	ErrNoExercises = errors.New("no exercises in catalog")
	// ErrInvalidInput is returned for requests the engine refuses to process.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the row-level storage capability the engine runs against.
// Implementations must return ErrNotFound (possibly wrapped) for missing rows.
type Store interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)

	InsertPlan(ctx context.Context, row models.PlanRow) error
	LatestPlan(ctx context.Context, userID uuid.UUID) (*models.PlanRow, error)
	UpdatePlanProgress(ctx context.Context, planID uuid.UUID, progress float64) error

	InsertWorkout(ctx context.Context, row models.WorkoutRow) error
	GetWorkout(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutRow, error)
	UpdateWorkout(ctx context.Context, row models.WorkoutRow) error
	ListPlanWorkouts(ctx context.Context, planID uuid.UUID) ([]models.WorkoutRow, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]models.WorkoutRow, error)
	CompletedWorkoutDates(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]time.Time, error)
	CountCompletedWorkouts(ctx context.Context, userID uuid.UUID) (int, error)
	SumCompletedDuration(ctx context.Context, userID uuid.UUID) (int, error)
	TrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error)

	InsertWorkoutExercise(ctx context.Context, row models.WorkoutExerciseRow) error
	ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExerciseRow, error)
	UpdateWorkoutExercise(ctx context.Context, row models.WorkoutExerciseRow) error
	ListWeightLogs(ctx context.Context, userID uuid.UUID) ([]models.WeightLogRow, error)

	ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.AchievementRow, error)
	CountAchievements(ctx context.Context, userID uuid.UUID) (int, error)
	InsertAchievements(ctx context.Context, rows []models.AchievementRow) ([]models.AchievementRow, error)

	GetUser(ctx context.Context, userID uuid.UUID) (*models.UserRow, error)
	UpsertUser(ctx context.Context, row models.UserRow) (*models.UserRow, error)
	ActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// RandomSource draws uniform integers in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level math/rand/v2 functions.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine implements plan/workout generation and progress evaluation.
type Engine struct {
	store Store
	rand  RandomSource
	now   func() time.Time
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom overrides the random source used for exercise selection.
func WithRandom(r RandomSource) Option {
	return func(e *Engine) { e.rand = r }
}

// WithClock overrides the clock used for "today" and account tenure.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine backed by store.
func New(store Store, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		rand:  globalRand{},
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// today returns the current UTC calendar date at midnight.
func (e *Engine) today() time.Time {
	return truncateDay(e.now())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(math.Round(truncateDay(b).Sub(truncateDay(a)).Hours() / 24))
}

// FormatDate renders a calendar date the way the API exposes it.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
