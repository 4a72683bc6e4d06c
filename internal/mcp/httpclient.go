package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the TrainPlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. An empty
// apiKey sends no X-API-Key header.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a request and decodes a 200 response into out. 400 and 404
// responses map to the engine's sentinel errors.
func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", engine.ErrNotFound, errorMessage(data))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", engine.ErrInvalidInput, errorMessage(data))
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// errorMessage extracts the error field of an API error body.
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return strings.TrimSpace(string(data))
	}
	return body.Error
}

func userParams(userID uuid.UUID) url.Values {
	v := url.Values{}
	v.Set("user_id", userID.String())
	return v
}

func dateParams(userID uuid.UUID, start, end *time.Time) url.Values {
	v := userParams(userID)
	if start != nil {
		v.Set("start_date", engine.FormatDate(*start))
	}
	if end != nil {
		v.Set("end_date", engine.FormatDate(*end))
	}
	return v
}

type planBody struct {
	UserID        uuid.UUID    `json:"user_id"`
	Name          string       `json:"name,omitempty"`
	Goal          models.Goal  `json:"goal"`
	Level         models.Level `json:"level"`
	Frequency     int          `json:"frequency"`
	Duration      int          `json:"duration"`
	Inventory     []string     `json:"inventory,omitempty"`
	TargetMuscles []string     `json:"target_muscles,omitempty"`
}

func (c *HTTPClient) CreatePlan(ctx context.Context, req engine.PlanRequest) (*engine.PlanResult, error) {
	var result engine.PlanResult
	err := c.do(ctx, http.MethodPost, "/api/v1/create_plan", nil, planBody{
		UserID:        req.UserID,
		Name:          req.Name,
		Goal:          req.Goal,
		Level:         req.Level,
		Frequency:     req.Frequency,
		Duration:      req.Duration,
		Inventory:     req.Inventory,
		TargetMuscles: req.TargetMuscles,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type workoutBody struct {
	UserID        uuid.UUID          `json:"user_id"`
	Type          models.WorkoutType `json:"type"`
	Duration      int                `json:"duration"`
	TargetMuscles []string           `json:"target_muscles,omitempty"`
	Inventory     []string           `json:"inventory,omitempty"`
}

func (c *HTTPClient) CreateWorkout(ctx context.Context, req engine.WorkoutRequest) (*engine.WorkoutResult, error) {
	var result engine.WorkoutResult
	err := c.do(ctx, http.MethodPost, "/api/v1/create_workout", nil, workoutBody{
		UserID:        req.UserID,
		Type:          req.Type,
		Duration:      req.Duration,
		TargetMuscles: req.TargetMuscles,
		Inventory:     req.Inventory,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// exerciseUpdateBody is the wire form of engine.ExerciseUpdate.
type exerciseUpdateBody struct {
	ID           string        `json:"id"`
	ActualSets   *int          `json:"actual_sets,omitempty"`
	ActualReps   *int          `json:"actual_reps,omitempty"`
	ActualWeight *float64      `json:"actual_weight,omitempty"`
	Status       models.Status `json:"status,omitempty"`
}

type updateBody struct {
	Status    models.Status        `json:"status,omitempty"`
	Feedback  string               `json:"feedback,omitempty"`
	Exercises []exerciseUpdateBody `json:"exercises"`
}

func (c *HTTPClient) UpdateWorkout(ctx context.Context, workoutID uuid.UUID, upd engine.WorkoutUpdate) (*engine.UpdateResult, error) {
	body := updateBody{
		Status:    upd.Status,
		Feedback:  upd.Feedback,
		Exercises: make([]exerciseUpdateBody, 0, len(upd.Exercises)),
	}
	for _, ex := range upd.Exercises {
		body.Exercises = append(body.Exercises, exerciseUpdateBody(ex))
	}
	var result engine.UpdateResult
	if err := c.do(ctx, http.MethodPatch, "/api/v1/update_workout/"+workoutID.String(), nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ActivePlan(ctx context.Context, userID uuid.UUID) (*engine.ActivePlan, error) {
	var plan engine.ActivePlan
	if err := c.do(ctx, http.MethodGet, "/api/v1/get_active_plan", userParams(userID), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *HTTPClient) UserStats(ctx context.Context, userID uuid.UUID) (engine.Stats, error) {
	var stats engine.Stats
	err := c.do(ctx, http.MethodGet, "/api/v1/get_stats", userParams(userID), nil, &stats)
	return stats, err
}

func (c *HTTPClient) CheckAchievements(ctx context.Context, userID uuid.UUID) (*engine.AchievementResult, error) {
	var result engine.AchievementResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/check_achievements", userParams(userID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Achievements(ctx context.Context, userID uuid.UUID) ([]engine.Achievement, error) {
	var body struct {
		Achievements []engine.Achievement `json:"achievements"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/achievements", userParams(userID), nil, &body); err != nil {
		return nil, err
	}
	return body.Achievements, nil
}

func (c *HTTPClient) WorkoutHistory(ctx context.Context, userID uuid.UUID, limit int) ([]engine.HistoryEntry, error) {
	params := userParams(userID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var body struct {
		Workouts []engine.HistoryEntry `json:"workouts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/workout_history", params, nil, &body); err != nil {
		return nil, err
	}
	return body.Workouts, nil
}

func (c *HTTPClient) WorkoutDetails(ctx context.Context, workoutID uuid.UUID) (*engine.WorkoutDetails, error) {
	var details engine.WorkoutDetails
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+workoutID.String(), nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *HTTPClient) Regularity(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]string, error) {
	var body struct {
		Dates []string `json:"dates"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/regularity", dateParams(userID, start, end), nil, &body); err != nil {
		return nil, err
	}
	return body.Dates, nil
}

func (c *HTTPClient) TrainingSummary(ctx context.Context, userID uuid.UUID, start, end *time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	params := dateParams(userID, start, end)
	if bucket != "" {
		params.Set("bucket", bucket)
	}
	var periods []models.TrainingSummaryPeriod
	if err := c.do(ctx, http.MethodGet, "/api/v1/training_summary", params, nil, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

func (c *HTTPClient) Exercises(ctx context.Context, muscles, inventory []string) ([]models.Exercise, error) {
	params := url.Values{}
	if len(muscles) > 0 {
		params.Set("muscles", strings.Join(muscles, ","))
	}
	if len(inventory) > 0 {
		params.Set("inventory", strings.Join(inventory, ","))
	}
	var body struct {
		Exercises []models.Exercise `json:"exercises"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/exercises", params, nil, &body); err != nil {
		return nil, err
	}
	return body.Exercises, nil
}
