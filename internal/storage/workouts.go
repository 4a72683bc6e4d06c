package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

const workoutColumns = `id, user_id, plan_id, type, date, duration, status, calories, feedback, created_at`

// InsertWorkout inserts a workout row.
func (db *DB) InsertWorkout(ctx context.Context, row models.WorkoutRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (`+workoutColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		row.ID, row.UserID, row.PlanID, string(row.Type), row.Date, row.Duration,
		string(row.Status), row.Calories, row.Feedback, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// GetWorkout retrieves a single workout by ID.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, workoutID)
	w, err := scanWorkout(row)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", notFound(err))
	}
	return &w, nil
}

// UpdateWorkout stores the mutable fields of a workout.
func (db *DB) UpdateWorkout(ctx context.Context, row models.WorkoutRow) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET status = $2, calories = $3, feedback = $4 WHERE id = $1`,
		row.ID, string(row.Status), row.Calories, row.Feedback)
	if err != nil {
		return fmt.Errorf("updating workout %s: %w", row.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating workout %s: %w", row.ID, engine.ErrNotFound)
	}
	return nil
}

// ListPlanWorkouts returns a plan's workouts by date ascending.
func (db *DB) ListPlanWorkouts(ctx context.Context, planID uuid.UUID) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE plan_id = $1
		 ORDER BY date ASC, created_at ASC`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("querying plan workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// ListWorkouts returns the user's most recent workouts, newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// CompletedWorkoutDates returns the dates of completed workouts in ascending
// order, one entry per workout. start and end are optional inclusive bounds.
func (db *DB) CompletedWorkoutDates(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]time.Time, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date FROM workouts
		 WHERE user_id = $1 AND status = 'completed'
		   AND ($2::date IS NULL OR date >= $2::date)
		   AND ($3::date IS NULL OR date <= $3::date)
		 ORDER BY date ASC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying completed workout dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning workout date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row scanner) (models.WorkoutRow, error) {
	var w models.WorkoutRow
	var typ, status string
	err := row.Scan(&w.ID, &w.UserID, &w.PlanID, &typ, &w.Date, &w.Duration,
		&status, &w.Calories, &w.Feedback, &w.CreatedAt)
	w.Type = models.WorkoutType(typ)
	w.Status = models.Status(status)
	return w, err
}

func scanWorkoutRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.WorkoutRow, error) {
	var result []models.WorkoutRow
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
