package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// TrainingSummary returns completed workouts per type and performed volume
// per week or month in [start, end), newest period first.
func (db *DB) TrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	field, err := truncInterval(bucket)
	if err != nil {
		return nil, err
	}

	// Query 1: Workout stats grouped by period + type
	workoutRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, date)::date AS period,
		        type,
		        COUNT(*)::int,
		        COALESCE(SUM(duration), 0)::int,
		        COALESCE(SUM(calories), 0)::int
		 FROM workouts
		 WHERE date >= $2::date AND date < $3::date AND user_id = $4 AND status = 'completed'
		 GROUP BY period, type
		 ORDER BY period DESC, COUNT(*) DESC`,
		field, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout summary: %w", err)
	}
	defer workoutRows.Close()

	// Build map of period -> workout summaries
	periodMap := make(map[string]*models.TrainingSummaryPeriod)
	var periodOrder []string

	for workoutRows.Next() {
		var periodTime time.Time
		var ws models.WorkoutTypeSummary
		var typ string
		if err := workoutRows.Scan(&periodTime, &typ, &ws.Count, &ws.Minutes, &ws.Calories); err != nil {
			return nil, fmt.Errorf("scanning workout summary: %w", err)
		}
		ws.Type = models.WorkoutType(typ)
		key := periodTime.Format(time.DateOnly)
		if _, ok := periodMap[key]; !ok {
			periodMap[key] = &models.TrainingSummaryPeriod{Period: key}
			periodOrder = append(periodOrder, key)
		}
		periodMap[key].Workouts = append(periodMap[key].Workouts, ws)
	}
	if err := workoutRows.Err(); err != nil {
		return nil, err
	}

	// Query 2: Performed exercise volume grouped by period
	volumeRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, w.date)::date AS period,
		        COUNT(*)::int,
		        COALESCE(SUM(we.actual_sets), 0)::int,
		        COALESCE(SUM(we.actual_sets * we.actual_reps), 0)::int,
		        COALESCE(SUM(we.actual_sets * we.actual_reps * we.actual_weight), 0)
		 FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.date >= $2::date AND w.date < $3::date AND w.user_id = $4 AND we.status = 'completed'
		 GROUP BY period
		 ORDER BY period DESC`,
		field, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying volume summary: %w", err)
	}
	defer volumeRows.Close()

	for volumeRows.Next() {
		var periodTime time.Time
		var vs models.VolumeSummary
		if err := volumeRows.Scan(&periodTime, &vs.Exercises, &vs.Sets, &vs.Reps, &vs.Tonnage); err != nil {
			return nil, fmt.Errorf("scanning volume summary: %w", err)
		}
		key := periodTime.Format(time.DateOnly)
		if _, ok := periodMap[key]; !ok {
			periodMap[key] = &models.TrainingSummaryPeriod{Period: key}
			periodOrder = append(periodOrder, key)
		}
		periodMap[key].Volume = &vs
	}
	if err := volumeRows.Err(); err != nil {
		return nil, err
	}

	// Periods only present in the volume query are appended after the
	// workout periods; restore newest-first order.
	sortPeriodsDesc(periodOrder)

	result := make([]models.TrainingSummaryPeriod, 0, len(periodOrder))
	for _, key := range periodOrder {
		p := *periodMap[key]
		if p.Workouts == nil {
			p.Workouts = []models.WorkoutTypeSummary{}
		}
		result = append(result, p)
	}
	return result, nil
}

// truncInterval returns the date_trunc field for a summary bucket.
func truncInterval(bucket string) (string, error) {
	switch bucket {
	case "week", "month":
		return bucket, nil
	default:
		return "", fmt.Errorf("%w: unknown summary bucket %q", engine.ErrInvalidInput, bucket)
	}
}

// sortPeriodsDesc orders YYYY-MM-DD keys newest first.
func sortPeriodsDesc(keys []string) {
	slices.SortFunc(keys, func(a, b string) int { return strings.Compare(b, a) })
}
