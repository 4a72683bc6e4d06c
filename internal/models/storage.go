package models

import (
	"time"

	"github.com/google/uuid"
)

// Goal is the training goal a plan is generated for.
type Goal string

const (
	GoalStrength   Goal = "strength"
	GoalMuscle     Goal = "muscle"
	GoalWeightLoss Goal = "weight_loss"
	GoalEndurance  Goal = "endurance"
)

// Level is the difficulty tier of a plan.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// WorkoutType is the kind of session. Plan workouts rotate over strength,
// cardio and flexibility; ad-hoc workouts use strength, cardio, hiit and
// stretching. The two vocabularies are kept separate.
type WorkoutType string

const (
	WorkoutStrength    WorkoutType = "strength"
	WorkoutCardio      WorkoutType = "cardio"
	WorkoutFlexibility WorkoutType = "flexibility"
	WorkoutHIIT        WorkoutType = "hiit"
	WorkoutStretching  WorkoutType = "stretching"
)

// Status is the lifecycle state of a workout or workout exercise.
// It only moves forward: planned → completed.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
)

// Exercise is a catalog entry.
type Exercise struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tips        string   `json:"tips" yaml:"tips"`
	ImageURL    string   `json:"image_url" yaml:"image_url"`
	Muscles     []string `json:"muscles" yaml:"muscles"`
	Inventory   []string `json:"inventory" yaml:"inventory"`
}

// PlanRow is a row of the training_plans table.
type PlanRow struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Goal      Goal
	Level     Level
	Frequency int
	Duration  int // weeks
	Progress  float64
	CreatedAt time.Time
}

// WorkoutRow is a row of the workouts table. PlanID is nil for ad-hoc workouts.
type WorkoutRow struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PlanID    *uuid.UUID
	Type      WorkoutType
	Date      time.Time
	Duration  int // minutes
	Status    Status
	Calories  *int
	Feedback  *string
	CreatedAt time.Time
}

// WorkoutExerciseRow is a row of the workout_exercises table.
type WorkoutExerciseRow struct {
	ID           uuid.UUID
	WorkoutID    uuid.UUID
	ExerciseID   string
	Sets         int
	Reps         int
	Weight       float64
	Rest         int // seconds
	ActualSets   *int
	ActualReps   *int
	ActualWeight *float64
	Status       Status
}

// AchievementRow is a row of the achievements table.
type AchievementRow struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Icon       string
	DateEarned time.Time
}

// UserRow is a row of the users table.
type UserRow struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// WeightLogRow is one recorded actual weight for an exercise, tagged with
// the date of the workout it was performed in.
type WeightLogRow struct {
	ExerciseID string
	Date       time.Time
	Weight     float64
}

// WorkoutTypeSummary aggregates completed workouts of one type in a period.
type WorkoutTypeSummary struct {
	Type     WorkoutType `json:"type"`
	Count    int         `json:"count"`
	Minutes  int         `json:"minutes"`
	Calories int         `json:"calories"`
}

// VolumeSummary aggregates performed exercise volume in a period.
type VolumeSummary struct {
	Exercises int     `json:"exercises"`
	Sets      int     `json:"sets"`
	Reps      int     `json:"reps"`
	Tonnage   float64 `json:"tonnage"`
}

// TrainingSummaryPeriod holds completed training for one week or month.
type TrainingSummaryPeriod struct {
	Period   string               `json:"period"`
	Workouts []WorkoutTypeSummary `json:"workouts"`
	Volume   *VolumeSummary       `json:"volume,omitempty"`
}
