package storage

import (
	"context"
	"fmt"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// InsertWorkoutExercise inserts one prescribed exercise of a workout.
func (db *DB) InsertWorkoutExercise(ctx context.Context, row models.WorkoutExerciseRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_exercises (id, workout_id, exercise_id, sets, reps, weight, rest,
		 actual_sets, actual_reps, actual_weight, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		row.ID, row.WorkoutID, row.ExerciseID, row.Sets, row.Reps, row.Weight, row.Rest,
		row.ActualSets, row.ActualReps, row.ActualWeight, string(row.Status))
	if err != nil {
		return fmt.Errorf("inserting workout exercise: %w", err)
	}
	return nil
}

// ListWorkoutExercises returns a workout's exercises in creation order.
func (db *DB) ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, exercise_id, sets, reps, weight, rest,
		 actual_sets, actual_reps, actual_weight, status
		 FROM workout_exercises
		 WHERE workout_id = $1
		 ORDER BY created_at ASC, id ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutExerciseRow
	for rows.Next() {
		var r models.WorkoutExerciseRow
		var status string
		if err := rows.Scan(&r.ID, &r.WorkoutID, &r.ExerciseID, &r.Sets, &r.Reps, &r.Weight, &r.Rest,
			&r.ActualSets, &r.ActualReps, &r.ActualWeight, &status); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		r.Status = models.Status(status)
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpdateWorkoutExercise stores the actuals and status of a workout exercise.
func (db *DB) UpdateWorkoutExercise(ctx context.Context, row models.WorkoutExerciseRow) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_exercises
		 SET actual_sets = $2, actual_reps = $3, actual_weight = $4, status = $5
		 WHERE id = $1`,
		row.ID, row.ActualSets, row.ActualReps, row.ActualWeight, string(row.Status))
	if err != nil {
		return fmt.Errorf("updating workout exercise %s: %w", row.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating workout exercise %s: %w", row.ID, engine.ErrNotFound)
	}
	return nil
}

// ListWeightLogs returns every recorded actual weight of the user, ordered
// by workout date.
func (db *DB) ListWeightLogs(ctx context.Context, userID uuid.UUID) ([]models.WeightLogRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT we.exercise_id, w.date, we.actual_weight
		 FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.user_id = $1 AND we.actual_weight IS NOT NULL
		 ORDER BY w.date ASC, we.created_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying weight logs: %w", err)
	}
	defer rows.Close()

	var result []models.WeightLogRow
	for rows.Next() {
		var l models.WeightLogRow
		if err := rows.Scan(&l.ExerciseID, &l.Date, &l.Weight); err != nil {
			return nil, fmt.Errorf("scanning weight log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
