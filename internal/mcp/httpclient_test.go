package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/engine/enginetest"
	"github.com/claude/trainplan/internal/models"
	"github.com/claude/trainplan/internal/server"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestTrainingSummaryParams verifies the client sends dates, bucket and the
// API key, and parses the period array.
func TestTrainingSummaryParams(t *testing.T) {
	uid := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/training_summary": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("user_id"); got != uid.String() {
				t.Errorf("user_id=%q, want %s", got, uid)
			}
			if got := q.Get("start_date"); got != "2026-01-05" {
				t.Errorf("start_date=%q, want 2026-01-05", got)
			}
			if q.Has("end_date") {
				t.Error("end_date sent without an end")
			}
			if got := q.Get("bucket"); got != "month" {
				t.Errorf("bucket=%q, want month", got)
			}
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key=%q, want secret", got)
			}
			writeTestJSON(t, w, []models.TrainingSummaryPeriod{
				{Period: "2026-01-01", Workouts: []models.WorkoutTypeSummary{{Type: models.WorkoutStrength, Count: 3, Minutes: 135}}},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL+"/", "secret")
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	periods, err := client.TrainingSummary(context.Background(), uid, &start, nil, "month")
	if err != nil {
		t.Fatalf("TrainingSummary: %v", err)
	}
	if len(periods) != 1 || periods[0].Workouts[0].Minutes != 135 {
		t.Errorf("periods = %+v", periods)
	}
}

// TestExercisesParams verifies list filters are sent comma-separated and no
// API key header is sent when none is configured.
func TestExercisesParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("muscles"); got != "chest,back" {
				t.Errorf("muscles=%q, want chest,back", got)
			}
			if r.URL.Query().Has("inventory") {
				t.Error("inventory sent without filter")
			}
			if _, ok := r.Header["X-Api-Key"]; ok {
				t.Error("X-API-Key sent without a key")
			}
			writeTestJSON(t, w, map[string][]models.Exercise{"exercises": {{ID: "ex1", Name: "Push-ups"}}})
		},
	})
	defer ts.Close()

	exercises, err := NewHTTPClient(ts.URL, "").Exercises(context.Background(), []string{"chest", "back"}, nil)
	if err != nil {
		t.Fatalf("Exercises: %v", err)
	}
	if len(exercises) != 1 || exercises[0].ID != "ex1" {
		t.Errorf("exercises = %+v", exercises)
	}
}

// TestHTTPClientErrorMapping verifies 404 and 400 responses map to the
// engine's sentinel errors and other failures are plain errors.
func TestHTTPClientErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, engine.ErrNotFound},
		{http.StatusBadRequest, engine.ErrInvalidInput},
		{http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"boom"}`))
			}))
			defer ts.Close()

			_, err := NewHTTPClient(ts.URL, "").ActivePlan(context.Background(), uuid.New())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && (errors.Is(err, engine.ErrNotFound) || errors.Is(err, engine.ErrInvalidInput)) {
				t.Errorf("err = %v, want unmapped error", err)
			}
		})
	}
}

// TestHTTPClientRoundTrip drives the client against the real REST server
// backed by an in-memory store.
func TestHTTPClientRoundTrip(t *testing.T) {
	store := enginetest.New()
	store.Exercises = engine.DemoExercises()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(engine.New(store, log), nil, server.Options{APIKey: "k"}, log)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx := context.Background()
	client := NewHTTPClient(ts.URL, "k")
	uid := uuid.New()

	if _, err := client.ActivePlan(ctx, uid); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("ActivePlan before any plan: err = %v, want ErrNotFound", err)
	}

	plan, err := client.CreatePlan(ctx, engine.PlanRequest{
		UserID:    uid,
		Goal:      models.GoalStrength,
		Level:     models.LevelBeginner,
		Frequency: 3,
		Duration:  2,
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if len(plan.Workouts) != 6 {
		t.Errorf("plan workouts = %d, want 6", len(plan.Workouts))
	}

	active, err := client.ActivePlan(ctx, uid)
	if err != nil {
		t.Fatalf("ActivePlan: %v", err)
	}
	if active.ID != plan.PlanID || active.Progress != 0 {
		t.Errorf("active plan = %+v, want %s at 0%%", active, plan.PlanID)
	}

	workout, err := client.CreateWorkout(ctx, engine.WorkoutRequest{UserID: uid, Type: models.WorkoutStrength, Duration: 45})
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	details, err := client.WorkoutDetails(ctx, workout.WorkoutID)
	if err != nil {
		t.Fatalf("WorkoutDetails: %v", err)
	}
	if len(details.Exercises) != len(workout.Exercises) {
		t.Errorf("details exercises = %d, want %d", len(details.Exercises), len(workout.Exercises))
	}

	history, err := client.WorkoutHistory(ctx, uid, 3)
	if err != nil {
		t.Fatalf("WorkoutHistory: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("history = %d entries, want 3", len(history))
	}

	stats, err := client.UserStats(ctx, uid)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if stats.Workouts != 0 {
		t.Errorf("stats.Workouts = %d, want 0", stats.Workouts)
	}

	res, err := client.CheckAchievements(ctx, uid)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if len(res.NewAchievements) != 0 {
		t.Errorf("new achievements = %+v, want none", res.NewAchievements)
	}

	dates, err := client.Regularity(ctx, uid, nil, nil)
	if err != nil {
		t.Fatalf("Regularity: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("regularity = %v, want empty", dates)
	}

	if _, err := client.CreateWorkout(ctx, engine.WorkoutRequest{UserID: uid}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Errorf("CreateWorkout without type: err = %v, want ErrInvalidInput", err)
	}
	if _, err := client.CreatePlan(ctx, engine.PlanRequest{
		UserID:    uid,
		Goal:      models.GoalStrength,
		Level:     models.LevelBeginner,
		Frequency: 8,
		Duration:  2,
	}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Errorf("CreatePlan with 8 sessions a week: err = %v, want ErrInvalidInput", err)
	}

	list, err := client.Achievements(ctx, uid)
	if err != nil {
		t.Fatalf("Achievements: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("achievements = %#v, want an empty list", list)
	}

	if _, err := NewHTTPClient(ts.URL, "wrong").Achievements(ctx, uid); err == nil {
		t.Error("expected error with wrong API key")
	}
}
