package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

const (
	planWorkoutMinutes  = 45
	daysBetweenSessions = 2
)

// Plan size bounds. A plan holds at most MaxFrequency × MaxDuration sessions.
const (
	MaxFrequency = 7  // sessions per week
	MaxDuration  = 52 // weeks
)

// planRotation is the workout type cycle for plan sessions, indexed by i mod 3.
var planRotation = []models.WorkoutType{
	models.WorkoutStrength,
	models.WorkoutCardio,
	models.WorkoutFlexibility,
}

// PlanRequest describes a plan to generate.
type PlanRequest struct {
	UserID        uuid.UUID
	Name          string
	Goal          models.Goal
	Level         models.Level
	Frequency     int // sessions per week
	Duration      int // weeks
	Inventory     []string
	TargetMuscles []string
}

// PlannedWorkout is a created plan session.
type PlannedWorkout struct {
	ID   uuid.UUID `json:"id"`
	Date string    `json:"date"`
}

// PlanResult is the outcome of CreatePlan.
type PlanResult struct {
	PlanID   uuid.UUID        `json:"plan_id"`
	Workouts []PlannedWorkout `json:"workouts"`
}

// Tier holds the prescription applied to every exercise of a plan.
type Tier struct {
	Sets int
	Reps int
	Rest int // seconds
}

// TierFor returns the prescription for level. Unknown levels get the
// intermediate tier.
func TierFor(level models.Level) Tier {
	switch level {
	case models.LevelBeginner:
		return Tier{Sets: 2, Reps: 8, Rest: 90}
	case models.LevelAdvanced:
		return Tier{Sets: 4, Reps: 12, Rest: 45}
	default:
		return Tier{Sets: 3, Reps: 10, Rest: 60}
	}
}

// ScheduleDate returns the date of session i of a plan starting on start.
// Weeks advance in whole-week blocks and sessions within a week are two days
// apart, so frequencies above 3 spill into the following week.
func ScheduleDate(start time.Time, i, frequency int) time.Time {
	return start.AddDate(0, 0, (i/frequency)*7+(i%frequency)*daysBetweenSessions)
}

// DefaultPlanName is used when the request carries no display name.
func DefaultPlanName(goal models.Goal) string {
	return strings.ToUpper(string(goal)) + " PLAN"
}

// CreatePlan generates a plan with frequency × duration scheduled workouts.
//
// The plan row is mandatory; failures creating individual workouts or their
// exercises are logged and skipped, leaving a partially populated plan.
func (e *Engine) CreatePlan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if req.UserID == uuid.Nil || req.Goal == "" || req.Level == "" || req.Frequency < 1 || req.Duration < 1 {
		return nil, fmt.Errorf("%w: user_id, goal, level, frequency and duration are required", ErrInvalidInput)
	}
	if req.Frequency > MaxFrequency || req.Duration > MaxDuration {
		return nil, fmt.Errorf("%w: frequency must be 1-%d and duration 1-%d", ErrInvalidInput, MaxFrequency, MaxDuration)
	}

	catalog, err := e.store.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	if len(catalog) == 0 {
		return nil, ErrNoExercises
	}
	pool := FilterCatalog(catalog, req.TargetMuscles, req.Inventory)
	if len(pool) == 0 {
		e.log.Info("no exercises match plan filters, using full catalog",
			"user_id", req.UserID, "muscles", req.TargetMuscles, "inventory", req.Inventory)
		pool = catalog
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultPlanName(req.Goal)
	}

	now := e.now().UTC()
	plan := models.PlanRow{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Name:      name,
		Goal:      req.Goal,
		Level:     req.Level,
		Frequency: req.Frequency,
		Duration:  req.Duration,
		Progress:  0,
		CreatedAt: now,
	}
	if err := e.store.InsertPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("creating plan: %w", err)
	}

	tier := TierFor(req.Level)
	start := e.today()
	total := req.Frequency * req.Duration
	result := &PlanResult{
		PlanID:   plan.ID,
		Workouts: make([]PlannedWorkout, 0, total),
	}

	for i := range total {
		if err := ctx.Err(); err != nil {
			e.log.Warn("plan creation cancelled",
				"plan_id", plan.ID, "created", len(result.Workouts), "requested", total)
			return nil, fmt.Errorf("creating plan workouts: %w", err)
		}
		date := ScheduleDate(start, i, req.Frequency)
		workout := models.WorkoutRow{
			ID:        uuid.New(),
			UserID:    req.UserID,
			PlanID:    &plan.ID,
			Type:      planRotation[i%len(planRotation)],
			Date:      date,
			Duration:  planWorkoutMinutes,
			Status:    models.StatusPlanned,
			CreatedAt: now,
		}
		if err := e.store.InsertWorkout(ctx, workout); err != nil {
			e.log.Error("creating plan workout failed, skipping",
				"plan_id", plan.ID, "session", i+1, "error", err)
			continue
		}
		result.Workouts = append(result.Workouts, PlannedWorkout{ID: workout.ID, Date: FormatDate(date)})

		for _, ex := range pickExercises(pool, e.rand) {
			row := models.WorkoutExerciseRow{
				ID:         uuid.New(),
				WorkoutID:  workout.ID,
				ExerciseID: ex.ID,
				Sets:       tier.Sets,
				Reps:       tier.Reps,
				Weight:     0,
				Rest:       tier.Rest,
				Status:     models.StatusPlanned,
			}
			if err := e.store.InsertWorkoutExercise(ctx, row); err != nil {
				e.log.Warn("adding exercise to plan workout failed, skipping",
					"workout_id", workout.ID, "exercise_id", ex.ID, "error", err)
			}
		}
	}

	e.log.Info("plan created",
		"plan_id", plan.ID, "user_id", req.UserID,
		"workouts", len(result.Workouts), "requested", total)
	return result, nil
}
