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
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100

	// summaryPeriods is how many buckets a summary covers without a start date.
	summaryPeriods = 12
)

// HistoryEntry is a workout as listed in the user's history.
type HistoryEntry struct {
	ID       uuid.UUID          `json:"id"`
	PlanID   *uuid.UUID         `json:"plan_id"`
	Type     models.WorkoutType `json:"type"`
	Date     string             `json:"date"`
	Duration int                `json:"duration"`
	Calories *int               `json:"calories"`
	Status   models.Status      `json:"status"`
}

// WorkoutHistory returns the user's workouts, newest first. A limit of zero
// or less selects the default; larger limits are capped.
func (e *Engine) WorkoutHistory(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	rows, err := e.store.ListWorkouts(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	history := make([]HistoryEntry, 0, len(rows))
	for _, w := range rows {
		history = append(history, HistoryEntry{
			ID:       w.ID,
			PlanID:   w.PlanID,
			Type:     w.Type,
			Date:     FormatDate(w.Date),
			Duration: w.Duration,
			Calories: w.Calories,
			Status:   w.Status,
		})
	}
	return history, nil
}

// Regularity returns the distinct dates with a completed workout in
// ascending order. start and end are optional inclusive bounds.
func (e *Engine) Regularity(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]string, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}

	dates, err := e.store.CompletedWorkoutDates(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing completed workout dates: %w", err)
	}
	days := make([]string, 0, len(dates))
	for _, d := range dates {
		day := FormatDate(truncateDay(d))
		if len(days) > 0 && days[len(days)-1] == day {
			continue
		}
		days = append(days, day)
	}
	return days, nil
}

// TrainingSummary aggregates completed training per "week" or "month"
// bucket. end is exclusive and defaults to tomorrow; start defaults to
// twelve buckets before end.
func (e *Engine) TrainingSummary(ctx context.Context, userID uuid.UUID, start, end *time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	if bucket == "" {
		bucket = "week"
	}
	if bucket != "week" && bucket != "month" {
		return nil, fmt.Errorf("%w: bucket must be week or month", ErrInvalidInput)
	}

	to := e.today().AddDate(0, 0, 1)
	if end != nil {
		to = truncateDay(*end)
	}
	from := to.AddDate(0, 0, -7*summaryPeriods)
	if bucket == "month" {
		from = to.AddDate(0, -summaryPeriods, 0)
	}
	if start != nil {
		from = truncateDay(*start)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: start_date must be before end_date", ErrInvalidInput)
	}

	periods, err := e.store.TrainingSummary(ctx, userID, from, to, bucket)
	if err != nil {
		return nil, fmt.Errorf("summarizing training: %w", err)
	}
	if periods == nil {
		periods = []models.TrainingSummaryPeriod{}
	}
	return periods, nil
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

// EnsureUser creates the user's profile row or updates its display name.
// The creation time of an existing user is never changed.
func (e *Engine) EnsureUser(ctx context.Context, userID uuid.UUID, displayName string) (*models.UserRow, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	user, err := e.store.UpsertUser(ctx, models.UserRow{
		ID:          userID,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   e.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return user, nil
}
