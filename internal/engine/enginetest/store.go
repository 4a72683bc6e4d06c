// Package enginetest provides an in-memory engine.Store for tests of the
// packages built on top of the engine.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// ErrInjected is returned by methods named in Store.Fail.
var ErrInjected = errors.New("injected failure")

// Store is an in-memory engine.Store. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	Exercises       []models.Exercise
	Plans           []models.PlanRow
	Workouts        []models.WorkoutRow
	WorkoutExercise []models.WorkoutExerciseRow
	Achievements    []models.AchievementRow
	Users           map[uuid.UUID]models.UserRow

	// Fail lists method names that return ErrInjected.
	Fail map[string]bool

	// ProgressWrites records every UpdatePlanProgress value in call order.
	ProgressWrites []float64

	failNth map[string]int
	calls   map[string]int
}

var _ engine.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		Users:   make(map[uuid.UUID]models.UserRow),
		Fail:    make(map[string]bool),
		failNth: make(map[string]int),
		calls:   make(map[string]int),
	}
}

// SetFail makes method fail on every subsequent call.
func (s *Store) SetFail(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail[method] = true
}

// FailNth makes only the nth call (1-based) of method fail.
func (s *Store) FailNth(method string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNth[method] = n
}

// Calls reports how many times method has been called.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// PlanWorkouts returns the stored workouts of a plan in insertion order.
func (s *Store) PlanWorkouts(planID uuid.UUID) []models.WorkoutRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.WorkoutRow
	for _, w := range s.Workouts {
		if w.PlanID != nil && *w.PlanID == planID {
			rows = append(rows, w)
		}
	}
	return rows
}

// check counts the call and reports an injected failure. The caller holds mu.
func (s *Store) check(method string) error {
	s.calls[method]++
	if s.Fail[method] {
		return fmt.Errorf("%s: %w", method, ErrInjected)
	}
	if n, ok := s.failNth[method]; ok && n == s.calls[method] {
		return fmt.Errorf("%s: %w", method, ErrInjected)
	}
	return nil
}

func (s *Store) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListExercises"); err != nil {
		return nil, err
	}
	return slices.Clone(s.Exercises), nil
}

func (s *Store) InsertPlan(ctx context.Context, row models.PlanRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("InsertPlan"); err != nil {
		return err
	}
	s.Plans = append(s.Plans, row)
	return nil
}

func (s *Store) LatestPlan(ctx context.Context, userID uuid.UUID) (*models.PlanRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("LatestPlan"); err != nil {
		return nil, err
	}
	var latest *models.PlanRow
	for i := range s.Plans {
		p := s.Plans[i]
		if p.UserID == userID && (latest == nil || !p.CreatedAt.Before(latest.CreatedAt)) {
			latest = &p
		}
	}
	if latest == nil {
		return nil, engine.ErrNotFound
	}
	return latest, nil
}

func (s *Store) UpdatePlanProgress(ctx context.Context, planID uuid.UUID, progress float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdatePlanProgress"); err != nil {
		return err
	}
	s.ProgressWrites = append(s.ProgressWrites, progress)
	for i := range s.Plans {
		if s.Plans[i].ID == planID {
			s.Plans[i].Progress = progress
			return nil
		}
	}
	return engine.ErrNotFound
}

func (s *Store) InsertWorkout(ctx context.Context, row models.WorkoutRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("InsertWorkout"); err != nil {
		return err
	}
	s.Workouts = append(s.Workouts, row)
	return nil
}

func (s *Store) GetWorkout(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("GetWorkout"); err != nil {
		return nil, err
	}
	for _, w := range s.Workouts {
		if w.ID == workoutID {
			return &w, nil
		}
	}
	return nil, engine.ErrNotFound
}

func (s *Store) UpdateWorkout(ctx context.Context, row models.WorkoutRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateWorkout"); err != nil {
		return err
	}
	for i := range s.Workouts {
		if s.Workouts[i].ID == row.ID {
			s.Workouts[i] = row
			return nil
		}
	}
	return engine.ErrNotFound
}

func (s *Store) ListPlanWorkouts(ctx context.Context, planID uuid.UUID) ([]models.WorkoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListPlanWorkouts"); err != nil {
		return nil, err
	}
	var rows []models.WorkoutRow
	for _, w := range s.Workouts {
		if w.PlanID != nil && *w.PlanID == planID {
			rows = append(rows, w)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func (s *Store) ListWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]models.WorkoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListWorkouts"); err != nil {
		return nil, err
	}
	var rows []models.WorkoutRow
	for _, w := range s.Workouts {
		if w.UserID == userID {
			rows = append(rows, w)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// completed returns the user's completed workouts by ascending date.
// The caller holds mu.
func (s *Store) completed(userID uuid.UUID) []models.WorkoutRow {
	var rows []models.WorkoutRow
	for _, w := range s.Workouts {
		if w.UserID == userID && w.Status == models.StatusCompleted {
			rows = append(rows, w)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

func (s *Store) CompletedWorkoutDates(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CompletedWorkoutDates"); err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, w := range s.completed(userID) {
		if (start != nil && w.Date.Before(*start)) || (end != nil && w.Date.After(*end)) {
			continue
		}
		dates = append(dates, w.Date)
	}
	return dates, nil
}

func (s *Store) CountCompletedWorkouts(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CountCompletedWorkouts"); err != nil {
		return 0, err
	}
	return len(s.completed(userID)), nil
}

func (s *Store) SumCompletedDuration(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SumCompletedDuration"); err != nil {
		return 0, err
	}
	total := 0
	for _, w := range s.completed(userID) {
		total += w.Duration
	}
	return total, nil
}

// TrainingSummary groups completed workouts by month, or by the Monday of
// their week. Volume is not aggregated.
func (s *Store) TrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("TrainingSummary"); err != nil {
		return nil, err
	}
	byPeriod := make(map[string][]models.WorkoutTypeSummary)
	var keys []string
	for _, w := range s.completed(userID) {
		if w.Date.Before(start) || !w.Date.Before(end) {
			continue
		}
		p := time.Date(w.Date.Year(), w.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		if bucket == "week" {
			p = w.Date.AddDate(0, 0, -((int(w.Date.Weekday()) + 6) % 7))
		}
		key := engine.FormatDate(p)
		summaries, ok := byPeriod[key]
		if !ok {
			keys = append(keys, key)
		}
		i := slices.IndexFunc(summaries, func(ws models.WorkoutTypeSummary) bool { return ws.Type == w.Type })
		if i < 0 {
			summaries = append(summaries, models.WorkoutTypeSummary{Type: w.Type})
			i = len(summaries) - 1
		}
		summaries[i].Count++
		summaries[i].Minutes += w.Duration
		byPeriod[key] = summaries
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	var result []models.TrainingSummaryPeriod
	for _, k := range keys {
		result = append(result, models.TrainingSummaryPeriod{Period: k, Workouts: byPeriod[k]})
	}
	return result, nil
}

func (s *Store) InsertWorkoutExercise(ctx context.Context, row models.WorkoutExerciseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("InsertWorkoutExercise"); err != nil {
		return err
	}
	s.WorkoutExercise = append(s.WorkoutExercise, row)
	return nil
}

func (s *Store) ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExerciseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListWorkoutExercises"); err != nil {
		return nil, err
	}
	var rows []models.WorkoutExerciseRow
	for _, r := range s.WorkoutExercise {
		if r.WorkoutID == workoutID {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (s *Store) UpdateWorkoutExercise(ctx context.Context, row models.WorkoutExerciseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdateWorkoutExercise"); err != nil {
		return err
	}
	for i := range s.WorkoutExercise {
		if s.WorkoutExercise[i].ID == row.ID {
			s.WorkoutExercise[i] = row
			return nil
		}
	}
	return engine.ErrNotFound
}

func (s *Store) ListWeightLogs(ctx context.Context, userID uuid.UUID) ([]models.WeightLogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListWeightLogs"); err != nil {
		return nil, err
	}
	dates := make(map[uuid.UUID]time.Time)
	for _, w := range s.Workouts {
		if w.UserID == userID {
			dates[w.ID] = w.Date
		}
	}
	var logs []models.WeightLogRow
	for _, r := range s.WorkoutExercise {
		date, ok := dates[r.WorkoutID]
		if !ok || r.ActualWeight == nil {
			continue
		}
		logs = append(logs, models.WeightLogRow{ExerciseID: r.ExerciseID, Date: date, Weight: *r.ActualWeight})
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date.Before(logs[j].Date) })
	return logs, nil
}

func (s *Store) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.AchievementRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListAchievements"); err != nil {
		return nil, err
	}
	var rows []models.AchievementRow
	for _, a := range s.Achievements {
		if a.UserID == userID {
			rows = append(rows, a)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DateEarned.After(rows[j].DateEarned) })
	return rows, nil
}

func (s *Store) CountAchievements(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CountAchievements"); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range s.Achievements {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertAchievements(ctx context.Context, rows []models.AchievementRow) ([]models.AchievementRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("InsertAchievements"); err != nil {
		return nil, err
	}
	var inserted []models.AchievementRow
	for _, row := range rows {
		dup := slices.ContainsFunc(s.Achievements, func(a models.AchievementRow) bool {
			return a.UserID == row.UserID && a.Name == row.Name
		})
		if dup {
			continue
		}
		s.Achievements = append(s.Achievements, row)
		inserted = append(inserted, row)
	}
	return inserted, nil
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*models.UserRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.Users[userID]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpsertUser(ctx context.Context, row models.UserRow) (*models.UserRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpsertUser"); err != nil {
		return nil, err
	}
	if u, ok := s.Users[row.ID]; ok {
		row.CreatedAt = u.CreatedAt
		if row.DisplayName == "" {
			row.DisplayName = u.DisplayName
		}
	}
	s.Users[row.ID] = row
	return &row, nil
}

// ActiveUserIDs returns users with a workout dated on or after since, then
// users created on or after since.
func (s *Store) ActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ActiveUserIDs"); err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, w := range s.Workouts {
		if !w.Date.Before(since) {
			add(w.UserID)
		}
	}
	for _, u := range s.Users {
		if !u.CreatedAt.Before(since) {
			add(u.ID)
		}
	}
	return ids, nil
}
