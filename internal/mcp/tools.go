package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// optionalDate parses a YYYY-MM-DD argument; empty means unset.
func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := engine.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// userID returns the user_id argument, falling back to the session user.
func userID(ctx context.Context, req mcp.CallToolRequest) (uuid.UUID, error) {
	if raw := req.GetString("user_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, errors.New("user_id must be a UUID")
		}
		return id, nil
	}
	if id := UserIDFromContext(ctx); id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, errors.New("user_id is required")
}

var userIDParam = mcp.WithString("user_id", mcp.Description("User UUID. Defaults to the session user."))

// --- Tool definitions ---

var toolCreatePlan = mcp.NewTool("create_plan",
	mcp.WithDescription("Generate a multi-week training plan. Creates frequency × duration workouts, two days apart, each with 3-6 exercises prescribed for the level. Returns the plan id and the scheduled workout dates."),
	userIDParam,
	mcp.WithString("goal", mcp.Required(), mcp.Description("Training goal"), mcp.Enum("strength", "muscle", "weight_loss", "endurance")),
	mcp.WithString("level", mcp.Required(), mcp.Description("Difficulty tier"), mcp.Enum("beginner", "intermediate", "advanced")),
	mcp.WithNumber("frequency", mcp.Required(), mcp.Min(1), mcp.Max(engine.MaxFrequency), mcp.Description("Sessions per week (1-7)")),
	mcp.WithNumber("duration", mcp.Required(), mcp.Min(1), mcp.Max(engine.MaxDuration), mcp.Description("Plan length in weeks (1-52)")),
	mcp.WithString("name", mcp.Description("Plan name. Defaults to '<GOAL> PLAN'.")),
	mcp.WithArray("target_muscles", mcp.Description("Muscle groups to focus on (e.g. chest, back, legs)"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("inventory", mcp.Description("Available equipment (e.g. dumbbells, barbell)"), mcp.Items(map[string]any{"type": "string"})),
)

var toolCreateWorkout = mcp.NewTool("create_workout",
	mcp.WithDescription("Generate a single workout for today that is not part of a plan. Returns the workout id and 3-6 exercises with sets, reps, weight and rest."),
	userIDParam,
	mcp.WithString("type", mcp.Required(), mcp.Description("Workout type"), mcp.Enum("strength", "cardio", "hiit", "stretching")),
	mcp.WithNumber("duration", mcp.Required(), mcp.Description("Planned duration in minutes")),
	mcp.WithArray("target_muscles", mcp.Description("Muscle groups to focus on"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("inventory", mcp.Description("Available equipment"), mcp.Items(map[string]any{"type": "string"})),
)

var toolUpdateWorkout = mcp.NewTool("update_workout",
	mcp.WithDescription("Record feedback and performed sets, reps and weight for a workout. Status 'completed' finishes the workout now, filling unrecorded exercises from their prescription. A workout whose exercises are all completed is completed automatically. Statuses never move back to planned."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout UUID")),
	mcp.WithString("status", mcp.Description("New workout status"), mcp.Enum("planned", "completed")),
	mcp.WithString("feedback", mcp.Description("Free-text feedback on the session")),
	mcp.WithArray("exercises", mcp.Description("Per-exercise results, keyed by workout exercise id (see get_workout)"), mcp.Items(map[string]any{
		"type":       "object",
		"properties": map[string]any{
			"id":            map[string]any{"type": "string"},
			"actual_sets":   map[string]any{"type": "integer"},
			"actual_reps":   map[string]any{"type": "integer"},
			"actual_weight": map[string]any{"type": "number"},
			"status":        map[string]any{"type": "string", "enum": []string{"planned", "completed"}},
		},
		"required": []string{"id"},
	})),
)

var toolGetActivePlan = mcp.NewTool("get_active_plan",
	mcp.WithDescription("The user's most recent plan with its workouts, their statuses and the completion percentage."),
	userIDParam,
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Completed workout count, total training minutes, active plan progress and number of achievements."),
	userIDParam,
)

var toolCheckAchievements = mcp.NewTool("check_achievements",
	mcp.WithDescription("Evaluate achievement rules (5-day streak, 600 training minutes, 20% weight progress, 30 days membership) and award the ones newly earned."),
	userIDParam,
)

var toolGetAchievements = mcp.NewTool("get_achievements",
	mcp.WithDescription("Achievements the user has earned, newest first."),
	userIDParam,
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("The user's workouts, newest first."),
	userIDParam,
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts (default 10, max 100)")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("One workout with its exercises, prescriptions and performed actuals."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolGetRegularity = mcp.NewTool("get_regularity",
	mcp.WithDescription("Dates on which the user completed a workout (training calendar)."),
	userIDParam,
	mcp.WithString("start", mcp.Description("First date (YYYY-MM-DD), inclusive")),
	mcp.WithString("end", mcp.Description("Last date (YYYY-MM-DD), inclusive")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly/monthly aggregated training. Returns completed workout counts, minutes and calories by type, plus performed set/rep/tonnage totals per period."),
	userIDParam,
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 12 periods before end.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD), exclusive. Defaults to tomorrow.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'week'."), mcp.Enum("week", "month")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("Exercise catalog, optionally filtered by muscle groups and available inventory."),
	mcp.WithArray("muscles", mcp.Description("Keep exercises hitting any of these muscle groups"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("inventory", mcp.Description("Keep exercises doable with this equipment"), mcp.Items(map[string]any{"type": "string"})),
)

// --- Tool handlers ---

func (h *handlers) createPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	goal, err := req.RequireString("goal")
	if err != nil {
		return mcp.NewToolResultError("goal parameter is required"), nil
	}
	level, err := req.RequireString("level")
	if err != nil {
		return mcp.NewToolResultError("level parameter is required"), nil
	}

	plan, err := h.ds.CreatePlan(ctx, engine.PlanRequest{
		UserID:        uid,
		Name:          req.GetString("name", ""),
		Goal:          models.Goal(goal),
		Level:         models.Level(level),
		Frequency:     req.GetInt("frequency", 0),
		Duration:      req.GetInt("duration", 0),
		TargetMuscles: req.GetStringSlice("target_muscles", nil),
		Inventory:     req.GetStringSlice("inventory", nil),
	})
	if err != nil {
		return h.toolError("create_plan", err), nil
	}
	return jsonResult(plan), nil
}

func (h *handlers) createWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type parameter is required"), nil
	}

	workout, err := h.ds.CreateWorkout(ctx, engine.WorkoutRequest{
		UserID:        uid,
		Type:          models.WorkoutType(typ),
		Duration:      req.GetInt("duration", 0),
		TargetMuscles: req.GetStringSlice("target_muscles", nil),
		Inventory:     req.GetStringSlice("inventory", nil),
	})
	if err != nil {
		return h.toolError("create_workout", err), nil
	}
	return jsonResult(workout), nil
}

func (h *handlers) updateWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("workout_id must be a UUID"), nil
	}

	var exercises []exerciseUpdateBody
	if arg, ok := req.GetArguments()["exercises"]; ok {
		data, err := json.Marshal(arg)
		if err != nil {
			return mcp.NewToolResultError("invalid exercises"), nil
		}
		if err := json.Unmarshal(data, &exercises); err != nil {
			return mcp.NewToolResultError("invalid exercises: " + err.Error()), nil
		}
	}

	upd := engine.WorkoutUpdate{
		Status:    models.Status(req.GetString("status", "")),
		Feedback:  req.GetString("feedback", ""),
		Exercises: make([]engine.ExerciseUpdate, 0, len(exercises)),
	}
	for _, ex := range exercises {
		upd.Exercises = append(upd.Exercises, engine.ExerciseUpdate(ex))
	}

	res, err := h.ds.UpdateWorkout(ctx, id, upd)
	if err != nil {
		return h.toolError("update_workout", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) getActivePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan, err := h.ds.ActivePlan(ctx, uid)
	if errors.Is(err, engine.ErrNotFound) {
		return mcp.NewToolResultText("The user has no training plan yet."), nil
	}
	if err != nil {
		return h.toolError("get_active_plan", err), nil
	}
	return jsonResult(plan), nil
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stats, err := h.ds.UserStats(ctx, uid)
	if err != nil {
		return h.toolError("get_stats", err), nil
	}
	return jsonResult(stats), nil
}

func (h *handlers) checkAchievements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.ds.CheckAchievements(ctx, uid)
	if err != nil {
		return h.toolError("check_achievements", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) getAchievements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := h.ds.Achievements(ctx, uid)
	if err != nil {
		return h.toolError("get_achievements", err), nil
	}
	return jsonResult(list), nil
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	history, err := h.ds.WorkoutHistory(ctx, uid, req.GetInt("limit", 0))
	if err != nil {
		return h.toolError("get_workout_history", err), nil
	}
	return jsonResult(history), nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("workout_id must be a UUID"), nil
	}
	details, err := h.ds.WorkoutDetails(ctx, id)
	if err != nil {
		return h.toolError("get_workout", err), nil
	}
	return jsonResult(details), nil
}

func (h *handlers) getRegularity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := optionalDate(req.GetString("start", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
	}
	end, err := optionalDate(req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
	}

	dates, err := h.ds.Regularity(ctx, uid, start, end)
	if err != nil {
		return h.toolError("get_regularity", err), nil
	}
	return jsonResult(map[string]any{"dates": dates}), nil
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := userID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := optionalDate(req.GetString("start", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
	}
	end, err := optionalDate(req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
	}

	summary, err := h.ds.TrainingSummary(ctx, uid, start, end, req.GetString("bucket", "week"))
	if err != nil {
		return h.toolError("get_training_summary", err), nil
	}
	return jsonResult(summary), nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.Exercises(ctx, req.GetStringSlice("muscles", nil), req.GetStringSlice("inventory", nil))
	if err != nil {
		return h.toolError("list_exercises", err), nil
	}
	return jsonResult(exercises), nil
}

// toolError reports err to the model. Input and lookup errors are the
// caller's to fix; anything else is logged.
func (h *handlers) toolError(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrNoExercises):
		return mcp.NewToolResultError(err.Error())
	default:
		h.log.Error("mcp "+tool, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}
