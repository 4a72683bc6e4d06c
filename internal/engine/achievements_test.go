package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/engine/enginetest"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// completedWorkout stores a completed workout for user on the given day
// offset and returns its id.
func completedWorkout(store *enginetest.Store, user uuid.UUID, offset, minutes int) uuid.UUID {
	id := uuid.New()
	store.Workouts = append(store.Workouts, models.WorkoutRow{
		ID:       id,
		UserID:   user,
		Type:     models.WorkoutStrength,
		Date:     day(offset),
		Duration: minutes,
		Status:   models.StatusCompleted,
	})
	return id
}

func logWeight(store *enginetest.Store, workoutID uuid.UUID, exerciseID string, weight float64) {
	store.WorkoutExercise = append(store.WorkoutExercise, models.WorkoutExerciseRow{
		ID:           uuid.New(),
		WorkoutID:    workoutID,
		ExerciseID:   exerciseID,
		ActualWeight: &weight,
		Status:       models.StatusCompleted,
	})
}

func earnedNames(res *engine.AchievementResult) []string {
	names := []string{}
	for _, a := range res.NewAchievements {
		names = append(names, a.Name)
	}
	return names
}

// TestLongestStreak covers consecutive runs, gaps and repeated dates.
func TestLongestStreak(t *testing.T) {
	days := func(offsets ...int) []time.Time {
		var ts []time.Time
		for _, o := range offsets {
			ts = append(ts, day(o))
		}
		return ts
	}
	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"single", days(0), 1},
		{"five consecutive", days(0, 1, 2, 3, 4), 5},
		{"one gap", days(0, 2, 3, 4, 5), 4},
		{"longest run wins", days(0, 1, 2, 10, 11), 3},
		{"same day resets", days(0, 1, 1, 2, 3), 3},
	}
	for _, tc := range cases {
		if got := engine.LongestStreak(tc.dates); got != tc.want {
			t.Errorf("%s: LongestStreak = %d, want %d", tc.name, got, tc.want)
		}
	}
}

// TestWeightProgressed covers the 20% threshold, its inclusive boundary and
// the zero-weight guard.
func TestWeightProgressed(t *testing.T) {
	logs := func(weights ...float64) []models.WeightLogRow {
		var rows []models.WeightLogRow
		for i, w := range weights {
			rows = append(rows, models.WeightLogRow{ExerciseID: "ex1", Date: day(i), Weight: w})
		}
		return rows
	}
	cases := []struct {
		name string
		logs []models.WeightLogRow
		want bool
	}{
		{"no logs", nil, false},
		{"10 to 12 is exactly 20%", logs(10, 12), true},
		{"10 to 11.9", logs(10, 11.9), false},
		{"zero initial never fires", logs(0, 50), false},
		{"latest not max", logs(10, 15, 11), false},
		{"single entry", logs(40), false},
		{"35 to 42", logs(35, 42), true},
	}
	for _, tc := range cases {
		if got := engine.WeightProgressed(tc.logs); got != tc.want {
			t.Errorf("%s: WeightProgressed = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestCheckAchievements_Streak verifies the streak rule end to end with five
// consecutive days and with a one-day gap.
func TestCheckAchievements_Streak(t *testing.T) {
	cases := []struct {
		offsets []int
		want    []string
	}{
		{[]int{-4, -3, -2, -1, 0}, []string{engine.AchievementStreak}},
		{[]int{-5, -3, -2, -1, 0}, []string{}},
	}
	for _, tc := range cases {
		store := enginetest.New()
		user := uuid.New()
		for _, o := range tc.offsets {
			completedWorkout(store, user, o, 30)
		}
		eng := newTestEngine(store)

		res, err := eng.CheckAchievements(context.Background(), user)
		if err != nil {
			t.Fatalf("CheckAchievements: %v", err)
		}
		if diff := cmp.Diff(tc.want, earnedNames(res)); diff != "" {
			t.Errorf("offsets %v (-want +got):\n%s", tc.offsets, diff)
		}
	}
}

// TestCheckAchievements_Duration verifies that 600 minutes is the inclusive
// threshold for the duration rule.
func TestCheckAchievements_Duration(t *testing.T) {
	cases := []struct {
		minutes []int
		want    []string
	}{
		{[]int{300, 299}, []string{}},
		{[]int{300, 300}, []string{engine.AchievementDuration}},
	}
	for _, tc := range cases {
		store := enginetest.New()
		user := uuid.New()
		for i, m := range tc.minutes {
			completedWorkout(store, user, -10*i, m)
		}
		eng := newTestEngine(store)

		res, err := eng.CheckAchievements(context.Background(), user)
		if err != nil {
			t.Fatalf("CheckAchievements: %v", err)
		}
		if diff := cmp.Diff(tc.want, earnedNames(res)); diff != "" {
			t.Errorf("minutes %v (-want +got):\n%s", tc.minutes, diff)
		}
	}
}

// TestCheckAchievements_Weight verifies the weight rule against weights
// recorded in workout exercises.
func TestCheckAchievements_Weight(t *testing.T) {
	store := enginetest.New()
	user := uuid.New()
	first := completedWorkout(store, user, -20, 30)
	second := completedWorkout(store, user, -10, 30)
	logWeight(store, first, "ex2", 0)
	logWeight(store, second, "ex2", 40)
	logWeight(store, first, "ex3", 10)
	logWeight(store, second, "ex3", 12)
	eng := newTestEngine(store)

	res, err := eng.CheckAchievements(context.Background(), user)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if diff := cmp.Diff([]string{engine.AchievementWeight}, earnedNames(res)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestCheckAchievements_Tenure verifies the 30 calendar day threshold.
func TestCheckAchievements_Tenure(t *testing.T) {
	cases := []struct {
		joined time.Time
		want   []string
	}{
		{day(-29), []string{}},
		{day(-30), []string{engine.AchievementTenure}},
		{day(-30).Add(23 * time.Hour), []string{engine.AchievementTenure}},
	}
	for _, tc := range cases {
		store := enginetest.New()
		user := uuid.New()
		store.Users[user] = models.UserRow{ID: user, CreatedAt: tc.joined}
		eng := newTestEngine(store)

		res, err := eng.CheckAchievements(context.Background(), user)
		if err != nil {
			t.Fatalf("CheckAchievements: %v", err)
		}
		if diff := cmp.Diff(tc.want, earnedNames(res)); diff != "" {
			t.Errorf("joined %s (-want +got):\n%s", tc.joined, diff)
		}
	}
}

// TestCheckAchievements_Idempotent verifies that a second evaluation without
// new activity earns nothing and that all rules fire together in one batch.
func TestCheckAchievements_Idempotent(t *testing.T) {
	store := enginetest.New()
	user := uuid.New()
	store.Users[user] = models.UserRow{ID: user, CreatedAt: day(-60)}
	var ids []uuid.UUID
	for o := -4; o <= 0; o++ {
		ids = append(ids, completedWorkout(store, user, o, 120))
	}
	logWeight(store, ids[0], "ex1", 20)
	logWeight(store, ids[4], "ex1", 30)
	eng := newTestEngine(store)

	res, err := eng.CheckAchievements(context.Background(), user)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	want := []string{engine.AchievementStreak, engine.AchievementDuration, engine.AchievementWeight, engine.AchievementTenure}
	if diff := cmp.Diff(want, earnedNames(res)); diff != "" {
		t.Errorf("first call (-want +got):\n%s", diff)
	}
	if store.Calls("InsertAchievements") != 1 {
		t.Errorf("InsertAchievements called %d times, want 1", store.Calls("InsertAchievements"))
	}

	res, err = eng.CheckAchievements(context.Background(), user)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if len(res.NewAchievements) != 0 {
		t.Errorf("second call earned %v", earnedNames(res))
	}
	if len(store.Achievements) != 4 {
		t.Errorf("stored %d achievements, want 4", len(store.Achievements))
	}
}

// TestCheckAchievements_InsertFails verifies that a failed batch insert is
// returned rather than swallowed.
func TestCheckAchievements_InsertFails(t *testing.T) {
	store := enginetest.New()
	user := uuid.New()
	store.Users[user] = models.UserRow{ID: user, CreatedAt: day(-60)}
	store.SetFail("InsertAchievements")
	eng := newTestEngine(store)

	if _, err := eng.CheckAchievements(context.Background(), user); !errors.Is(err, enginetest.ErrInjected) {
		t.Errorf("err = %v, want injected failure", err)
	}
}

// TestCheckAchievements_RuleReadFails verifies that a failing history read
// only disables its own rule.
func TestCheckAchievements_RuleReadFails(t *testing.T) {
	store := enginetest.New()
	user := uuid.New()
	store.Users[user] = models.UserRow{ID: user, CreatedAt: day(-60)}
	for o := -4; o <= 0; o++ {
		completedWorkout(store, user, o, 10)
	}
	store.SetFail("CompletedWorkoutDates")
	eng := newTestEngine(store)

	res, err := eng.CheckAchievements(context.Background(), user)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if diff := cmp.Diff([]string{engine.AchievementTenure}, earnedNames(res)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestCheckAchievements_ExistingReadFails verifies that the earned set is
// required before any rule runs.
func TestCheckAchievements_ExistingReadFails(t *testing.T) {
	store := enginetest.New()
	store.SetFail("ListAchievements")
	eng := newTestEngine(store)

	if _, err := eng.CheckAchievements(context.Background(), uuid.New()); !errors.Is(err, enginetest.ErrInjected) {
		t.Errorf("err = %v, want injected failure", err)
	}
	if store.Calls("InsertAchievements") != 0 {
		t.Error("achievements inserted without reading the earned set")
	}
}

// TestCheckAchievements_SkipsEarned verifies that earned rules are not
// evaluated again.
func TestCheckAchievements_SkipsEarned(t *testing.T) {
	store := enginetest.New()
	user := uuid.New()
	store.Achievements = append(store.Achievements, models.AchievementRow{ID: uuid.New(), UserID: user, Name: engine.AchievementDuration})
	eng := newTestEngine(store)

	if _, err := eng.CheckAchievements(context.Background(), user); err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if n := store.Calls("SumCompletedDuration"); n != 0 {
		t.Errorf("duration rule evaluated %d times for an earned achievement", n)
	}
}
