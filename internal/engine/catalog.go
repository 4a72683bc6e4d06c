package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/trainplan/internal/models"
)

const (
	minExercisesPerWorkout = 3
	maxExercisesPerWorkout = 6
)

// DemoExercises returns the built-in bodyweight set used when no catalog has
// been seeded. Every entry needs no inventory.
func DemoExercises() []models.Exercise {
	return []models.Exercise{
		{
			ID:          "ex1",
			Name:        "Push-ups",
			Description: "Classic movement for chest, shoulders and triceps",
			Tips:        "Keep elbows close to the body to load the triceps, wider for the chest",
			ImageURL:    "https://example.com/images/pushups.jpg",
			Muscles:     []string{models.MuscleChest, models.MuscleTriceps, models.MuscleShoulders},
		},
		{
			ID:          "ex2",
			Name:        "Squats",
			Description: "Basic leg strength movement",
			Tips:        "Keep the knees from travelling past the toes",
			ImageURL:    "https://example.com/images/squats.jpg",
			Muscles:     []string{models.MuscleQuads, models.MuscleGlutes, models.MuscleCalves},
		},
		{
			ID:          "ex3",
			Name:        "Pull-ups",
			Description: "Back and biceps builder",
			Tips:        "Start with a wide grip to emphasise the back",
			ImageURL:    "https://example.com/images/pullups.jpg",
			Muscles:     []string{models.MuscleBack, models.MuscleBiceps, models.MuscleForearms},
		},
		{
			ID:          "ex4",
			Name:        "Plank",
			Description: "Static hold for the core",
			Tips:        "Keep the body straight, do not sag at the lower back",
			ImageURL:    "https://example.com/images/plank.jpg",
			Muscles:     []string{models.MuscleCore, models.MuscleBack, models.MuscleShoulders},
		},
		{
			ID:          "ex5",
			Name:        "Burpees",
			Description: "Full body conditioning movement",
			Tips:        "Drop the push-up or the jump to make it easier",
			ImageURL:    "https://example.com/images/burpee.jpg",
			Muscles:     []string{models.MuscleLegs, models.MuscleChest, models.MuscleCore, models.MuscleShoulders},
		},
		{
			ID:          "ex6",
			Name:        "Crunches",
			Description: "Abdominal flexion",
			Tips:        "Focus on contracting the abs rather than on range of motion",
			ImageURL:    "https://example.com/images/crunches.jpg",
			Muscles:     []string{models.MuscleCore},
		},
	}
}

// noEquipment lists inventory tokens that mean "bodyweight only".
var noEquipment = map[string]bool{"": true, "none": true, "bodyweight": true}

// FilterCatalog keeps exercises that hit at least one of muscles (when any
// are given) and whose required inventory is covered by inventory (when any
// is given). Muscle names are compared after normalization.
func FilterCatalog(exercises []models.Exercise, muscles, inventory []string) []models.Exercise {
	wantMuscles := make(map[string]bool, len(muscles))
	for _, m := range muscles {
		name, _ := models.NormalizeMuscle(m)
		if name != "" {
			wantMuscles[name] = true
		}
	}

	have := make(map[string]bool, len(inventory))
	for _, item := range inventory {
		have[strings.ToLower(strings.TrimSpace(item))] = true
	}

	var result []models.Exercise
	for _, ex := range exercises {
		if len(wantMuscles) > 0 && !hitsAny(ex.Muscles, wantMuscles) {
			continue
		}
		if len(inventory) > 0 && !covered(ex.Inventory, have) {
			continue
		}
		result = append(result, ex)
	}
	return result
}

func hitsAny(muscles []string, want map[string]bool) bool {
	for _, m := range muscles {
		if name, _ := models.NormalizeMuscle(m); want[name] {
			return true
		}
	}
	return false
}

func covered(required []string, have map[string]bool) bool {
	for _, item := range required {
		item = strings.ToLower(strings.TrimSpace(item))
		if noEquipment[item] {
			continue
		}
		if !have[item] {
			return false
		}
	}
	return true
}

// pickExercises draws 3–6 distinct exercises uniformly at random. When the
// pool is smaller than the drawn count, the whole pool is returned shuffled.
func pickExercises(pool []models.Exercise, rnd RandomSource) []models.Exercise {
	count := minExercisesPerWorkout + rnd.IntN(maxExercisesPerWorkout-minExercisesPerWorkout+1)
	if count > len(pool) {
		count = len(pool)
	}

	shuffled := make([]models.Exercise, len(pool))
	copy(shuffled, pool)
	for i := 0; i < count; i++ {
		j := i + rnd.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:count]
}

// Exercises returns the catalog filtered by muscles and inventory. An empty
// catalog falls back to the demo set, filtered the same way.
func (e *Engine) Exercises(ctx context.Context, muscles, inventory []string) ([]models.Exercise, error) {
	catalog, err := e.store.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	if len(catalog) == 0 {
		e.log.Info("catalog empty, serving demo exercises")
		catalog = DemoExercises()
	}
	filtered := FilterCatalog(catalog, muscles, inventory)
	if filtered == nil {
		filtered = []models.Exercise{}
	}
	return filtered, nil
}
