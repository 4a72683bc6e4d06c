package engine_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/engine/enginetest"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func workoutRequest() engine.WorkoutRequest {
	return engine.WorkoutRequest{UserID: uuid.New(), Type: models.WorkoutHIIT, Duration: 30}
}

// TestCreateWorkout_Ranges verifies the ad-hoc prescription ranges over many
// random draws.
func TestCreateWorkout_Ranges(t *testing.T) {
	store := enginetest.New()
	store.Exercises = engine.DemoExercises()
	eng := newTestEngine(store, engine.WithRandom(rand.New(rand.NewPCG(7, 11))))

	for range 50 {
		res, err := eng.CreateWorkout(context.Background(), workoutRequest())
		if err != nil {
			t.Fatalf("CreateWorkout: %v", err)
		}
		if n := len(res.Exercises); n < 3 || n > 6 {
			t.Errorf("got %d exercises, want 3..6", n)
		}
		for _, ex := range res.Exercises {
			if ex.Sets < 2 || ex.Sets > 4 {
				t.Errorf("sets = %d, want 2..4", ex.Sets)
			}
			if ex.Reps < 8 || ex.Reps > 13 {
				t.Errorf("reps = %d, want 8..13", ex.Reps)
			}
			if ex.Weight < 0 || ex.Weight > 45 || int(ex.Weight)%5 != 0 {
				t.Errorf("weight = %v, want a multiple of 5 in 0..45", ex.Weight)
			}
			if ex.Rest != 30 && ex.Rest != 60 && ex.Rest != 90 {
				t.Errorf("rest = %d, want 30, 60 or 90", ex.Rest)
			}
		}
	}
}

// TestCreateWorkout_Pinned verifies the generated workout when every random
// draw is pinned to its upper bound.
func TestCreateWorkout_Pinned(t *testing.T) {
	store := enginetest.New()
	store.Exercises = engine.DemoExercises()
	eng := newTestEngine(store, engine.WithRandom(fixedRand(100)))

	req := workoutRequest()
	res, err := eng.CreateWorkout(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if len(res.Exercises) != 6 {
		t.Fatalf("got %d exercises, want 6", len(res.Exercises))
	}
	for _, ex := range res.Exercises {
		want := engine.GeneratedExercise{ID: ex.ID, Name: ex.Name, Sets: 4, Reps: 13, Weight: 45, Rest: 90}
		if diff := cmp.Diff(want, ex); diff != "" {
			t.Errorf("exercise %s mismatch (-want +got):\n%s", ex.ID, diff)
		}
	}

	w := store.Workouts[0]
	if w.PlanID != nil {
		t.Error("ad-hoc workout has a plan id")
	}
	if !w.Date.Equal(day(0)) {
		t.Errorf("date = %s, want today", engine.FormatDate(w.Date))
	}
	if w.Status != models.StatusPlanned || w.Duration != 30 || w.Type != models.WorkoutHIIT {
		t.Errorf("workout row = %+v", w)
	}
}

// TestCreateWorkout_DemoFallback verifies that an empty or unreadable
// catalog falls back to the built-in demo exercises.
func TestCreateWorkout_DemoFallback(t *testing.T) {
	demo := make(map[string]bool)
	for _, ex := range engine.DemoExercises() {
		demo[ex.ID] = true
	}

	for _, failing := range []bool{false, true} {
		store := enginetest.New()
		if failing {
			store.Exercises = []models.Exercise{{ID: "deadlift", Name: "Deadlift"}}
			store.SetFail("ListExercises")
		}
		eng := newTestEngine(store, engine.WithRandom(fixedRand(0)))

		res, err := eng.CreateWorkout(context.Background(), workoutRequest())
		if err != nil {
			t.Fatalf("CreateWorkout: %v", err)
		}
		for _, ex := range res.Exercises {
			if !demo[ex.ID] {
				t.Errorf("failing=%v: exercise %s is not a demo exercise", failing, ex.ID)
			}
		}
	}
}

// TestSmallCatalog verifies that a catalog with fewer than three exercises
// yields every exercise it has rather than padding or failing.
func TestSmallCatalog(t *testing.T) {
	catalog := []models.Exercise{{ID: "squat", Name: "Squat"}, {ID: "plank", Name: "Plank"}}

	store := enginetest.New()
	store.Exercises = catalog
	eng := newTestEngine(store, engine.WithRandom(fixedRand(100)))

	res, err := eng.CreateWorkout(context.Background(), workoutRequest())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if len(res.Exercises) != len(catalog) {
		t.Errorf("ad-hoc workout has %d exercises, want %d", len(res.Exercises), len(catalog))
	}

	plan, err := eng.CreatePlan(context.Background(), planRequest(models.LevelBeginner, 1, 1))
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	rows, _ := store.ListWorkoutExercises(context.Background(), plan.Workouts[0].ID)
	if len(rows) != len(catalog) {
		t.Errorf("plan workout has %d exercises, want %d", len(rows), len(catalog))
	}
}

// TestCreateWorkout_InsertFails verifies that the workout row is mandatory
// while exercise rows are best effort and still reported.
func TestCreateWorkout_InsertFails(t *testing.T) {
	store := enginetest.New()
	store.SetFail("InsertWorkout")
	eng := newTestEngine(store)
	if _, err := eng.CreateWorkout(context.Background(), workoutRequest()); !errors.Is(err, enginetest.ErrInjected) {
		t.Errorf("err = %v, want injected failure", err)
	}

	store = enginetest.New()
	store.SetFail("InsertWorkoutExercise")
	eng = newTestEngine(store, engine.WithRandom(fixedRand(0)))
	res, err := eng.CreateWorkout(context.Background(), workoutRequest())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if len(res.Exercises) != 3 {
		t.Errorf("got %d exercises, want 3", len(res.Exercises))
	}
	if len(store.WorkoutExercise) != 0 {
		t.Errorf("stored %d exercises, want 0", len(store.WorkoutExercise))
	}
}

// seedWorkout stores a planned workout with n planned exercises.
func seedWorkout(store *enginetest.Store, n int) (models.WorkoutRow, []models.WorkoutExerciseRow) {
	w := models.WorkoutRow{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Type:     models.WorkoutStrength,
		Date:     day(0),
		Duration: 45,
		Status:   models.StatusPlanned,
	}
	store.Workouts = append(store.Workouts, w)
	var rows []models.WorkoutExerciseRow
	for i := range n {
		r := models.WorkoutExerciseRow{
			ID:         uuid.New(),
			WorkoutID:  w.ID,
			ExerciseID: engine.DemoExercises()[i].ID,
			Sets:       3,
			Reps:       10,
			Weight:     20,
			Rest:       60,
			Status:     models.StatusPlanned,
		}
		rows = append(rows, r)
	}
	store.WorkoutExercise = append(store.WorkoutExercise, rows...)
	return w, rows
}

func ptr[T any](v T) *T { return &v }

// TestUpdateWorkout_CompletesWhenAllDone verifies that the workout is
// completed if and only if every exercise is completed.
func TestUpdateWorkout_CompletesWhenAllDone(t *testing.T) {
	ctx := context.Background()
	store := enginetest.New()
	w, rows := seedWorkout(store, 2)
	eng := newTestEngine(store)

	res, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{Exercises: []engine.ExerciseUpdate{
		{ID: rows[0].ID.String(), ActualSets: ptr(3), ActualReps: ptr(9), Status: models.StatusCompleted},
	}})
	if err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	if !res.Success {
		t.Errorf("errors = %v", res.Errors)
	}
	got, _ := store.GetWorkout(ctx, w.ID)
	if got.Status != models.StatusPlanned {
		t.Fatalf("workout completed with one exercise outstanding")
	}

	if _, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{Exercises: []engine.ExerciseUpdate{
		{ID: rows[1].ID.String(), ActualWeight: ptr(22.5), Status: models.StatusCompleted},
	}}); err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	got, _ = store.GetWorkout(ctx, w.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("workout status = %q, want completed", got.Status)
	}

	ex, _ := store.ListWorkoutExercises(ctx, w.ID)
	if ex[0].ActualReps == nil || *ex[0].ActualReps != 9 {
		t.Errorf("actual reps not recorded: %v", ex[0].ActualReps)
	}
	if ex[1].ActualWeight == nil || *ex[1].ActualWeight != 22.5 {
		t.Errorf("actual weight not recorded: %v", ex[1].ActualWeight)
	}
	if ex[1].ActualSets != nil {
		t.Errorf("actual sets set without being reported: %v", *ex[1].ActualSets)
	}
}

// TestUpdateWorkout_CompleteNow verifies the override that completes the
// workout and back-fills unset actuals from the prescription.
func TestUpdateWorkout_CompleteNow(t *testing.T) {
	ctx := context.Background()
	store := enginetest.New()
	w, rows := seedWorkout(store, 3)
	eng := newTestEngine(store)

	res, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{
		Status:   models.StatusCompleted,
		Feedback: "tough",
		Exercises: []engine.ExerciseUpdate{
			{ID: rows[0].ID.String(), ActualWeight: ptr(25.0)},
		},
	})
	if err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	if !res.Success {
		t.Errorf("errors = %v", res.Errors)
	}

	got, _ := store.GetWorkout(ctx, w.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("workout status = %q, want completed", got.Status)
	}
	if got.Feedback == nil || *got.Feedback != "tough" {
		t.Errorf("feedback = %v, want tough", got.Feedback)
	}

	ex, _ := store.ListWorkoutExercises(ctx, w.ID)
	for _, r := range ex {
		if r.Status != models.StatusCompleted {
			t.Errorf("exercise %s status = %q, want completed", r.ID, r.Status)
		}
		if r.ActualSets == nil || *r.ActualSets != r.Sets || r.ActualReps == nil || *r.ActualReps != r.Reps {
			t.Errorf("exercise %s actuals not back-filled", r.ID)
		}
	}
	if *ex[0].ActualWeight != 25 {
		t.Errorf("reported weight overwritten: %v", *ex[0].ActualWeight)
	}
	if *ex[1].ActualWeight != 20 {
		t.Errorf("back-filled weight = %v, want 20", *ex[1].ActualWeight)
	}
}

// TestUpdateWorkout_Monotonic verifies that completed statuses are never
// moved back to planned.
func TestUpdateWorkout_Monotonic(t *testing.T) {
	ctx := context.Background()
	store := enginetest.New()
	w, rows := seedWorkout(store, 1)
	eng := newTestEngine(store)

	if _, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{Status: models.StatusCompleted}); err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	if _, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{
		Status:    models.StatusPlanned,
		Exercises: []engine.ExerciseUpdate{{ID: rows[0].ID.String(), Status: models.StatusPlanned}},
	}); err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}

	got, _ := store.GetWorkout(ctx, w.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("workout status = %q, want completed", got.Status)
	}
	ex, _ := store.ListWorkoutExercises(ctx, w.ID)
	if ex[0].Status != models.StatusCompleted {
		t.Errorf("exercise status = %q, want completed", ex[0].Status)
	}
}

// TestUpdateWorkout_NoExercises verifies that a workout without exercises
// is only completed by the explicit override.
func TestUpdateWorkout_NoExercises(t *testing.T) {
	ctx := context.Background()
	store := enginetest.New()
	w, _ := seedWorkout(store, 0)
	eng := newTestEngine(store)

	if _, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{Feedback: "ok"}); err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	if got, _ := store.GetWorkout(ctx, w.ID); got.Status != models.StatusPlanned {
		t.Errorf("empty workout auto-completed")
	}

	if _, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{Status: models.StatusCompleted}); err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	if got, _ := store.GetWorkout(ctx, w.ID); got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

// TestUpdateWorkout_PerItemErrors verifies that bad exercise patches are
// reported without stopping the remaining patches.
func TestUpdateWorkout_PerItemErrors(t *testing.T) {
	ctx := context.Background()
	store := enginetest.New()
	w, rows := seedWorkout(store, 2)
	eng := newTestEngine(store)

	res, err := eng.UpdateWorkout(ctx, w.ID, engine.WorkoutUpdate{Exercises: []engine.ExerciseUpdate{
		{ID: ""},
		{ID: "not-a-uuid"},
		{ID: uuid.NewString()},
		{ID: rows[0].ID.String(), Status: "skipped"},
		{ID: rows[1].ID.String(), Status: models.StatusCompleted},
	}})
	if err != nil {
		t.Fatalf("UpdateWorkout: %v", err)
	}
	if res.Success {
		t.Error("success = true, want false")
	}
	if len(res.Errors) != 4 {
		t.Errorf("got %d errors, want 4: %v", len(res.Errors), res.Errors)
	}
	ex, _ := store.ListWorkoutExercises(ctx, w.ID)
	if ex[1].Status != models.StatusCompleted {
		t.Error("valid patch after failures not applied")
	}
}

// TestUpdateWorkout_NotFound verifies the error for an unknown workout and
// an invalid status.
func TestUpdateWorkout_NotFound(t *testing.T) {
	eng := newTestEngine(enginetest.New())
	if _, err := eng.UpdateWorkout(context.Background(), uuid.New(), engine.WorkoutUpdate{}); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := eng.UpdateWorkout(context.Background(), uuid.New(), engine.WorkoutUpdate{Status: "done"}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// TestWorkoutDetails verifies that exercise names are resolved from the
// catalog and the demo set, with a placeholder for unknown ids.
func TestWorkoutDetails(t *testing.T) {
	ctx := context.Background()
	store := enginetest.New()
	store.Exercises = []models.Exercise{{ID: "deadlift", Name: "Deadlift"}}
	w, rows := seedWorkout(store, 1)
	store.WorkoutExercise = append(store.WorkoutExercise,
		models.WorkoutExerciseRow{ID: uuid.New(), WorkoutID: w.ID, ExerciseID: "deadlift", Status: models.StatusPlanned},
		models.WorkoutExerciseRow{ID: uuid.New(), WorkoutID: w.ID, ExerciseID: "gone", Status: models.StatusPlanned},
	)
	eng := newTestEngine(store)

	d, err := eng.WorkoutDetails(ctx, w.ID)
	if err != nil {
		t.Fatalf("WorkoutDetails: %v", err)
	}
	var names []string
	for _, ex := range d.Exercises {
		names = append(names, ex.Name)
	}
	if diff := cmp.Diff([]string{"Push-ups", "Deadlift", "Unknown exercise"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if d.Exercises[0].ID != rows[0].ID || d.Date != engine.FormatDate(day(0)) {
		t.Errorf("details = %+v", d)
	}
}
