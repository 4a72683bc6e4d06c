package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// Achievement names. Each is earned at most once per user.
const (
	AchievementStreak   = "5 workouts in a row"
	AchievementDuration = "10 hours of training"
	AchievementWeight   = "+20% weight progress"
	AchievementTenure   = "1 month with us"
)

const (
	streakDays            = 5
	durationMinutes       = 600
	weightProgressPercent = 20
	tenureDays            = 30
)

// rule is one achievement check. eval reports whether the rule fires.
type rule struct {
	name string
	icon string
	eval func(e *Engine, ctx context.Context, userID uuid.UUID) (bool, error)
}

// rules are evaluated in this order.
var rules = []rule{
	{name: AchievementStreak, icon: "🔥", eval: (*Engine).streakRule},
	{name: AchievementDuration, icon: "⏱️", eval: (*Engine).durationRule},
	{name: AchievementWeight, icon: "💪", eval: (*Engine).weightRule},
	{name: AchievementTenure, icon: "🏆", eval: (*Engine).tenureRule},
}

// EarnedAchievement is a newly awarded achievement.
type EarnedAchievement struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Icon string    `json:"icon"`
}

// AchievementResult is the outcome of CheckAchievements.
type AchievementResult struct {
	NewAchievements []EarnedAchievement `json:"new_achievements"`
}

// CheckAchievements evaluates every rule the user has not yet earned and
// persists the ones that fire in a single batch. Repeated calls without new
// activity return no achievements.
//
// A rule whose history read fails is logged and treated as not firing. The
// batch insert is not best effort: its failure is returned to the caller.
func (e *Engine) CheckAchievements(ctx context.Context, userID uuid.UUID) (*AchievementResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	existing, err := e.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	earned := make(map[string]bool, len(existing))
	for _, a := range existing {
		earned[a.Name] = true
	}

	now := e.now().UTC()
	var staged []models.AchievementRow
	for _, r := range rules {
		if earned[r.name] {
			continue
		}
		fired, err := r.eval(e, ctx, userID)
		if err != nil {
			e.log.Warn("evaluating achievement failed", "user_id", userID, "achievement", r.name, "error", err)
			continue
		}
		if !fired {
			continue
		}
		staged = append(staged, models.AchievementRow{
			ID:         uuid.New(),
			UserID:     userID,
			Name:       r.name,
			Icon:       r.icon,
			DateEarned: now,
		})
	}

	result := &AchievementResult{NewAchievements: []EarnedAchievement{}}
	if len(staged) == 0 {
		return result, nil
	}

	inserted, err := e.store.InsertAchievements(ctx, staged)
	if err != nil {
		return nil, fmt.Errorf("inserting achievements: %w", err)
	}
	for _, a := range inserted {
		result.NewAchievements = append(result.NewAchievements, EarnedAchievement{ID: a.ID, Name: a.Name, Icon: a.Icon})
	}

	if len(inserted) > 0 {
		e.log.Info("achievements earned", "user_id", userID, "count", len(inserted))
	}
	return result, nil
}

func (e *Engine) streakRule(ctx context.Context, userID uuid.UUID) (bool, error) {
	dates, err := e.store.CompletedWorkoutDates(ctx, userID, nil, nil)
	if err != nil {
		return false, fmt.Errorf("listing completed workout dates: %w", err)
	}
	return LongestStreak(dates) >= streakDays, nil
}

func (e *Engine) durationRule(ctx context.Context, userID uuid.UUID) (bool, error) {
	total, err := e.store.SumCompletedDuration(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("summing workout duration: %w", err)
	}
	return total >= durationMinutes, nil
}

func (e *Engine) weightRule(ctx context.Context, userID uuid.UUID) (bool, error) {
	logs, err := e.store.ListWeightLogs(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("listing weight logs: %w", err)
	}
	return WeightProgressed(logs), nil
}

func (e *Engine) tenureRule(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("getting user: %w", err)
	}
	return daysBetween(user.CreatedAt, e.now()) >= tenureDays, nil
}

// LongestStreak returns the longest run of consecutive calendar days in
// dates, which must be in ascending order. Any gap other than exactly one
// day starts a new run, including a repeated date.
func LongestStreak(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// WeightProgressed reports whether any exercise's latest logged weight is at
// least 20% above its first. logs must be ordered by date ascending.
// Exercises first logged at zero weight never qualify.
func WeightProgressed(logs []models.WeightLogRow) bool {
	type span struct{ first, latest float64 }
	spans := make(map[string]*span)
	for _, l := range logs {
		if s, ok := spans[l.ExerciseID]; ok {
			s.latest = l.Weight
		} else {
			spans[l.ExerciseID] = &span{first: l.Weight, latest: l.Weight}
		}
	}
	for _, s := range spans {
		// Scaled to whole percent so that 10 -> 12 compares exactly.
		if s.first > 0 && s.latest*100 >= s.first*(100+weightProgressPercent) {
			return true
		}
	}
	return false
}

// Achievement is an earned achievement as listed for the user.
type Achievement struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon"`
	DateEarned string    `json:"date_earned"`
}

// Achievements returns the achievements the user has earned, newest first.
func (e *Engine) Achievements(ctx context.Context, userID uuid.UUID) ([]Achievement, error) {
	rows, err := e.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	list := make([]Achievement, 0, len(rows))
	for _, a := range rows {
		list = append(list, Achievement{ID: a.ID, Name: a.Name, Icon: a.Icon, DateEarned: FormatDate(a.DateEarned)})
	}
	return list, nil
}
