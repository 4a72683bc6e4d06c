package server

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
)

// requestTimeout bounds every API request.
const requestTimeout = 60 * time.Second

// DataStore is the storage surface used directly by the HTTP layer, outside
// the engine. *storage.DB satisfies it.
type DataStore interface {
	Ping(ctx context.Context) error
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

var _ DataStore = (*storage.DB)(nil)

// Options configures the HTTP surface.
type Options struct {
	// APIKey enables X-API-Key authentication on /api/v1 when non-empty.
	APIKey string
	// AllowedOrigins lists CORS origins. Empty allows all origins.
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine   *engine.Engine
	db       DataStore
	log      *slog.Logger
	opts     Options
	validate *validator.Validate
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(eng *engine.Engine, db DataStore, opts Options, log *slog.Logger) *Server {
	s := &Server{
		engine:   eng,
		db:       db,
		log:      log,
		opts:     opts,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.corsHandler().Handler)

	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", nil)
	})

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		if s.opts.APIKey != "" {
			r.Use(APIKeyAuth(s.opts.APIKey))
		}

		// Engine entry points
		r.Post("/create_plan", s.handleCreatePlan)
		r.Post("/create_workout", s.handleCreateWorkout)
		r.Get("/get_active_plan", s.handleActivePlan)
		r.Get("/get_stats", s.handleStats)
		r.Post("/check_achievements", s.handleCheckAchievements)
		r.Patch("/update_workout/{workout_id}", s.handleUpdateWorkout)
		r.Put("/update_workout/{workout_id}", s.handleUpdateWorkout)

		// Read endpoints
		r.Get("/workouts/{workout_id}", s.handleWorkoutDetails)
		r.Get("/workout_history", s.handleWorkoutHistory)
		r.Get("/regularity", s.handleRegularity)
		r.Get("/training_summary", s.handleTrainingSummary)
		r.Get("/achievements", s.handleAchievements)
		r.Get("/exercises", s.handleExercises)
		r.Put("/users/{user_id}", s.handleEnsureUser)

		// Operator endpoints
		r.Get("/admin/stats", s.handleDataStats)
		r.Get("/admin/import_logs", s.handleImportLogs)
	})
}

func (s *Server) corsHandler() *cors.Cors {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
	})
}

// newValidator reports struct fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
