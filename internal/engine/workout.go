package engine

import (
	"context"
	"fmt"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

const unknownExerciseName = "Unknown exercise"

// Ad-hoc prescription ranges. No level tiering is applied on this path.
const (
	adhocMinSets     = 2
	adhocSetsSpread  = 3 // 2..4
	adhocMinReps     = 8
	adhocRepsSpread  = 6 // 8..13
	adhocWeightStep  = 5
	adhocWeightSteps = 10 // 0..45
	adhocRestStep    = 30
	adhocRestSteps   = 3 // 30, 60, 90
)

// WorkoutRequest describes an ad-hoc workout to generate.
type WorkoutRequest struct {
	UserID        uuid.UUID
	Type          models.WorkoutType
	Duration      int // minutes
	TargetMuscles []string
	Inventory     []string
}

// GeneratedExercise is one exercise of an ad-hoc workout. ID is the catalog id.
type GeneratedExercise struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
	Rest   int     `json:"rest"`
}

// WorkoutResult is the outcome of CreateWorkout.
type WorkoutResult struct {
	WorkoutID uuid.UUID           `json:"workout_id"`
	Exercises []GeneratedExercise `json:"exercises"`
}

// CreateWorkout generates a single workout for today that is not attached
// to any plan. The workout row is mandatory; exercise rows are best effort
// and are reported in the result even when their insert failed.
func (e *Engine) CreateWorkout(ctx context.Context, req WorkoutRequest) (*WorkoutResult, error) {
	if req.UserID == uuid.Nil || req.Type == "" || req.Duration < 1 {
		return nil, fmt.Errorf("%w: user_id, type and duration are required", ErrInvalidInput)
	}

	workout := models.WorkoutRow{
		ID:        uuid.New(),
		UserID:    req.UserID,
		PlanID:    nil,
		Type:      req.Type,
		Date:      e.today(),
		Duration:  req.Duration,
		Status:    models.StatusPlanned,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.InsertWorkout(ctx, workout); err != nil {
		return nil, fmt.Errorf("creating workout: %w", err)
	}

	catalog, err := e.store.ListExercises(ctx)
	if err != nil {
		e.log.Warn("listing exercises failed, using demo exercises", "error", err)
		catalog = nil
	}
	if len(catalog) == 0 {
		e.log.Info("catalog empty, using demo exercises", "workout_id", workout.ID)
		catalog = DemoExercises()
	}
	pool := FilterCatalog(catalog, req.TargetMuscles, req.Inventory)
	if len(pool) == 0 {
		pool = catalog
	}

	result := &WorkoutResult{WorkoutID: workout.ID}
	for _, ex := range pickExercises(pool, e.rand) {
		gen := GeneratedExercise{
			ID:     ex.ID,
			Name:   ex.Name,
			Sets:   adhocMinSets + e.rand.IntN(adhocSetsSpread),
			Reps:   adhocMinReps + e.rand.IntN(adhocRepsSpread),
			Weight: float64(e.rand.IntN(adhocWeightSteps) * adhocWeightStep),
			Rest:   (e.rand.IntN(adhocRestSteps) + 1) * adhocRestStep,
		}

		row := models.WorkoutExerciseRow{
			ID:         uuid.New(),
			WorkoutID:  workout.ID,
			ExerciseID: ex.ID,
			Sets:       gen.Sets,
			Reps:       gen.Reps,
			Weight:     gen.Weight,
			Rest:       gen.Rest,
			Status:     models.StatusPlanned,
		}
		if err := e.store.InsertWorkoutExercise(ctx, row); err != nil {
			e.log.Warn("adding exercise to workout failed, continuing",
				"workout_id", workout.ID, "exercise_id", ex.ID, "error", err)
		}
		result.Exercises = append(result.Exercises, gen)
	}

	e.log.Info("workout created",
		"workout_id", workout.ID, "user_id", req.UserID, "exercises", len(result.Exercises))
	return result, nil
}

// ExerciseUpdate reports performance for one workout exercise. Nil actuals
// are left untouched.
type ExerciseUpdate struct {
	ID           string
	ActualSets   *int
	ActualReps   *int
	ActualWeight *float64
	Status       models.Status
}

// WorkoutUpdate is a partial update of a workout and its exercises.
// Status "completed" completes the workout immediately, back-filling the
// actuals of unfinished exercises from their prescription.
type WorkoutUpdate struct {
	Status    models.Status
	Feedback  string
	Exercises []ExerciseUpdate
}

// UpdateResult reports per-exercise failures of UpdateWorkout.
type UpdateResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

func validStatus(s models.Status) bool {
	return s == models.StatusPlanned || s == models.StatusCompleted
}

// UpdateWorkout records feedback and exercise performance for a workout.
// Statuses never move back from completed. The workout is promoted to
// completed once every one of its exercises is completed.
func (e *Engine) UpdateWorkout(ctx context.Context, workoutID uuid.UUID, upd WorkoutUpdate) (*UpdateResult, error) {
	if upd.Status != "" && !validStatus(upd.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, upd.Status)
	}

	workout, err := e.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("getting workout: %w", err)
	}
	exercises, err := e.store.ListWorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("listing workout exercises: %w", err)
	}

	if upd.Feedback != "" {
		feedback := upd.Feedback
		workout.Feedback = &feedback
		if err := e.store.UpdateWorkout(ctx, *workout); err != nil {
			return nil, fmt.Errorf("updating workout: %w", err)
		}
	}
	if upd.Status == models.StatusPlanned && workout.Status == models.StatusCompleted {
		e.log.Debug("ignoring status regression", "workout_id", workoutID)
	}

	index := make(map[uuid.UUID]int, len(exercises))
	for i, ex := range exercises {
		index[ex.ID] = i
	}

	var updateErrors []string
	for _, patch := range upd.Exercises {
		if patch.ID == "" {
			updateErrors = append(updateErrors, "missing exercise id")
			continue
		}
		id, err := uuid.Parse(patch.ID)
		if err != nil {
			updateErrors = append(updateErrors, fmt.Sprintf("exercise %s: invalid id", patch.ID))
			continue
		}
		i, ok := index[id]
		if !ok {
			updateErrors = append(updateErrors, fmt.Sprintf("exercise %s: not part of workout", id))
			continue
		}
		if patch.Status != "" && !validStatus(patch.Status) {
			updateErrors = append(updateErrors, fmt.Sprintf("exercise %s: unknown status %q", id, patch.Status))
			continue
		}

		row := exercises[i]
		if patch.ActualSets != nil {
			row.ActualSets = patch.ActualSets
		}
		if patch.ActualReps != nil {
			row.ActualReps = patch.ActualReps
		}
		if patch.ActualWeight != nil {
			row.ActualWeight = patch.ActualWeight
		}
		if patch.Status == models.StatusCompleted {
			row.Status = models.StatusCompleted
		}

		if err := e.store.UpdateWorkoutExercise(ctx, row); err != nil {
			e.log.Error("updating workout exercise failed", "exercise_id", id, "error", err)
			updateErrors = append(updateErrors, fmt.Sprintf("exercise %s: %v", id, err))
			continue
		}
		exercises[i] = row
	}

	completeNow := upd.Status == models.StatusCompleted && workout.Status != models.StatusCompleted
	if completeNow {
		for i, row := range exercises {
			if row.Status == models.StatusCompleted {
				continue
			}
			backfill(&row)
			if err := e.store.UpdateWorkoutExercise(ctx, row); err != nil {
				e.log.Error("completing workout exercise failed", "exercise_id", row.ID, "error", err)
				updateErrors = append(updateErrors, fmt.Sprintf("exercise %s: %v", row.ID, err))
				continue
			}
			exercises[i] = row
		}
	}

	if workout.Status != models.StatusCompleted && (completeNow || len(exercises) > 0) && allCompleted(exercises) {
		workout.Status = models.StatusCompleted
		if err := e.store.UpdateWorkout(ctx, *workout); err != nil {
			return nil, fmt.Errorf("completing workout: %w", err)
		}
		e.log.Info("workout completed", "workout_id", workoutID, "forced", completeNow)
	}

	return &UpdateResult{Success: len(updateErrors) == 0, Errors: updateErrors}, nil
}

// backfill marks row completed, copying the prescription into unset actuals.
func backfill(row *models.WorkoutExerciseRow) {
	if row.ActualSets == nil {
		sets := row.Sets
		row.ActualSets = &sets
	}
	if row.ActualReps == nil {
		reps := row.Reps
		row.ActualReps = &reps
	}
	if row.ActualWeight == nil {
		weight := row.Weight
		row.ActualWeight = &weight
	}
	row.Status = models.StatusCompleted
}

func allCompleted(rows []models.WorkoutExerciseRow) bool {
	for _, r := range rows {
		if r.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}

// ExerciseDetail is a workout exercise joined with its catalog name.
type ExerciseDetail struct {
	ID           uuid.UUID     `json:"id"`
	ExerciseID   string        `json:"exercise_id"`
	Name         string        `json:"name"`
	Sets         int           `json:"sets"`
	Reps         int           `json:"reps"`
	Weight       float64       `json:"weight"`
	Rest         int           `json:"rest"`
	ActualSets   *int          `json:"actual_sets"`
	ActualReps   *int          `json:"actual_reps"`
	ActualWeight *float64      `json:"actual_weight"`
	Status       models.Status `json:"status"`
}

// WorkoutDetails is a workout with its exercises.
type WorkoutDetails struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	PlanID    *uuid.UUID         `json:"plan_id"`
	Type      models.WorkoutType `json:"type"`
	Date      string             `json:"date"`
	Duration  int                `json:"duration"`
	Calories  *int               `json:"calories"`
	Status    models.Status      `json:"status"`
	Feedback  *string            `json:"feedback"`
	Exercises []ExerciseDetail   `json:"exercises"`
}

// WorkoutDetails returns a workout with its exercises and their names.
func (e *Engine) WorkoutDetails(ctx context.Context, workoutID uuid.UUID) (*WorkoutDetails, error) {
	w, err := e.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("getting workout: %w", err)
	}
	rows, err := e.store.ListWorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("listing workout exercises: %w", err)
	}

	names := make(map[string]string)
	for _, ex := range DemoExercises() {
		names[ex.ID] = ex.Name
	}
	catalog, err := e.store.ListExercises(ctx)
	if err != nil {
		e.log.Warn("listing exercises failed, names unavailable", "error", err)
	}
	for _, ex := range catalog {
		names[ex.ID] = ex.Name
	}

	details := &WorkoutDetails{
		ID:        w.ID,
		UserID:    w.UserID,
		PlanID:    w.PlanID,
		Type:      w.Type,
		Date:      FormatDate(w.Date),
		Duration:  w.Duration,
		Calories:  w.Calories,
		Status:    w.Status,
		Feedback:  w.Feedback,
		Exercises: make([]ExerciseDetail, 0, len(rows)),
	}
	for _, r := range rows {
		name, ok := names[r.ExerciseID]
		if !ok {
			name = unknownExerciseName
		}
		details.Exercises = append(details.Exercises, ExerciseDetail{
			ID:           r.ID,
			ExerciseID:   r.ExerciseID,
			Name:         name,
			Sets:         r.Sets,
			Reps:         r.Reps,
			Weight:       r.Weight,
			Rest:         r.Rest,
			ActualSets:   r.ActualSets,
			ActualReps:   r.ActualReps,
			ActualWeight: r.ActualWeight,
			Status:       r.Status,
		})
	}
	return details, nil
}
