// Package sweep periodically evaluates achievements for recently active
// users, so time-based achievements are awarded without a client call.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/google/uuid"
	"github.com/robfig/cron"
)

const (
	// activityWindow is how far back a workout or sign-up makes a user
	// eligible for the sweep. It exceeds the 30-day tenure threshold so
	// new accounts are still swept on the day they qualify.
	activityWindow = 35 * 24 * time.Hour

	runTimeout = 10 * time.Minute
)

// Checker evaluates achievements for one user. *engine.Engine satisfies it.
type Checker interface {
	CheckAchievements(ctx context.Context, userID uuid.UUID) (*engine.AchievementResult, error)
}

// UserLister lists users with activity since a point in time.
type UserLister interface {
	ActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// Result summarizes one sweep.
type Result struct {
	Users   int
	Awarded int
	Failed  int
}

// Sweeper runs achievement checks over active users.
type Sweeper struct {
	checker Checker
	users   UserLister
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Sweeper.
func New(checker Checker, users UserLister, log *slog.Logger) *Sweeper {
	return &Sweeper{checker: checker, users: users, log: log, now: time.Now}
}

// Run checks every active user once. A failing user is logged and skipped;
// only a failure to list users fails the run.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	ids, err := s.users.ActiveUserIDs(ctx, s.now().Add(-activityWindow))
	if err != nil {
		return Result{}, fmt.Errorf("listing active users: %w", err)
	}

	res := Result{Users: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out, err := s.checker.CheckAchievements(ctx, id)
		if err != nil {
			res.Failed++
			s.log.Warn("achievement check failed", "user_id", id, "error", err)
			continue
		}
		for _, a := range out.NewAchievements {
			res.Awarded++
			s.log.Info("achievement awarded", "user_id", id, "achievement", a.Name)
		}
	}
	return res, nil
}

// Start schedules Run on a cron spec (with seconds field, or a descriptor
// such as "@daily"). Stop the returned scheduler to end the sweeps.
func (s *Sweeper) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		start := time.Now()
		res, err := s.Run(ctx)
		if err != nil {
			s.log.Error("achievement sweep failed", "error", err)
			return
		}
		s.log.Info("achievement sweep complete",
			"users", res.Users,
			"awarded", res.Awarded,
			"failed", res.Failed,
			"duration", time.Since(start).String(),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling achievement sweep: %w", err)
	}
	c.Start()
	return c, nil
}
