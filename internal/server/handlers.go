package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type createPlanRequest struct {
	UserID        string       `json:"user_id" validate:"required,uuid"`
	Name          string       `json:"name"`
	Goal          models.Goal  `json:"goal" validate:"required,oneof=strength muscle weight_loss endurance"`
	Level         models.Level `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Frequency     int          `json:"frequency" validate:"required,min=1,max=7"`
	Duration      int          `json:"duration" validate:"required,min=1,max=52"`
	Inventory     []string     `json:"inventory"`
	TargetMuscles []string     `json:"target_muscles"`
}

type createWorkoutRequest struct {
	UserID        string             `json:"user_id" validate:"required,uuid"`
	Type          models.WorkoutType `json:"type" validate:"required,oneof=strength cardio hiit stretching"`
	Duration      int                `json:"duration" validate:"required,min=1"`
	TargetMuscles []string           `json:"target_muscles"`
	Inventory     []string           `json:"inventory"`
}

type exerciseUpdateRequest struct {
	ID           string        `json:"id"`
	ActualSets   *int          `json:"actual_sets"`
	ActualReps   *int          `json:"actual_reps"`
	ActualWeight *float64      `json:"actual_weight"`
	Status       models.Status `json:"status"`
}

type updateWorkoutRequest struct {
	Status    models.Status           `json:"status" validate:"omitempty,oneof=planned completed"`
	Feedback  string                  `json:"feedback"`
	Exercises []exerciseUpdateRequest `json:"exercises" validate:"required"`
}

type ensureUserRequest struct {
	DisplayName string `json:"display_name" validate:"max=100"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.CreatePlan(r.Context(), engine.PlanRequest{
		UserID:        uuid.MustParse(req.UserID),
		Name:          req.Name,
		Goal:          req.Goal,
		Level:         req.Level,
		Frequency:     req.Frequency,
		Duration:      req.Duration,
		Inventory:     req.Inventory,
		TargetMuscles: req.TargetMuscles,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req createWorkoutRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.CreateWorkout(r.Context(), engine.WorkoutRequest{
		UserID:        uuid.MustParse(req.UserID),
		Type:          req.Type,
		Duration:      req.Duration,
		TargetMuscles: req.TargetMuscles,
		Inventory:     req.Inventory,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleActivePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	plan, err := s.engine.ActivePlan(r.Context(), userID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.UserStats(r.Context(), userID))
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	result, err := s.engine.CheckAchievements(r.Context(), userID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidPathParam(w, r, "workout_id")
	if !ok {
		return
	}
	var req updateWorkoutRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	upd := engine.WorkoutUpdate{
		Status:    req.Status,
		Feedback:  req.Feedback,
		Exercises: make([]engine.ExerciseUpdate, 0, len(req.Exercises)),
	}
	for _, ex := range req.Exercises {
		upd.Exercises = append(upd.Exercises, engine.ExerciseUpdate{
			ID:           ex.ID,
			ActualSets:   ex.ActualSets,
			ActualReps:   ex.ActualReps,
			ActualWeight: ex.ActualWeight,
			Status:       ex.Status,
		})
	}
	result, err := s.engine.UpdateWorkout(r.Context(), workoutID, upd)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWorkoutDetails(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidPathParam(w, r, "workout_id")
	if !ok {
		return
	}
	details, err := s.engine.WorkoutDetails(r.Context(), workoutID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleWorkoutHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	history, err := s.engine.WorkoutHistory(r.Context(), userID, limit)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]engine.HistoryEntry{"workouts": history})
}

func (s *Server) handleRegularity(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	dates, err := s.engine.Regularity(r.Context(), userID, start, end)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	periods, err := s.engine.TrainingSummary(r.Context(), userID, start, end, r.URL.Query().Get("bucket"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	list, err := s.engine.Achievements(r.Context(), userID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]engine.Achievement{"achievements": list})
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exercises, err := s.engine.Exercises(r.Context(), splitList(q.Get("muscles")), splitList(q.Get("inventory")))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.Exercise{"exercises": exercises})
}

func (s *Server) handleEnsureUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidPathParam(w, r, "user_id")
	if !ok {
		return
	}
	var req ensureUserRequest
	if r.ContentLength != 0 && !s.decodeBody(w, r, &req) {
		return
	}
	user, err := s.engine.EnsureUser(r.Context(), userID, req.DisplayName)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// writeEngineError maps engine sentinels to status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrNoExercises):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// decodeBody decodes and validates a JSON request body. On failure it
// writes a 400 response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), nil)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "missing or invalid fields", fieldErrors(verrs))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

// fieldErrors renders validation failures as "field: rule" strings.
func fieldErrors(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out = append(out, fe.Field()+": "+rule)
	}
	return out
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "user_id parameter required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func uuidPathParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// parseDateRange reads the optional start_date and end_date parameters.
func parseDateRange(r *http.Request) (start, end *time.Time, err error) {
	q := r.URL.Query()
	if s := q.Get("start_date"); s != "" {
		t, err := engine.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if s := q.Get("end_date"); s != "" {
		t, err := engine.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}

// splitList parses a comma-separated query value.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
