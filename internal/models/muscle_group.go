package models

import "strings"

// Canonical muscle group names used by the exercise catalog.
const (
	MuscleChest     = "chest"
	MuscleBack      = "back"
	MuscleShoulders = "shoulders"
	MuscleBiceps    = "biceps"
	MuscleTriceps   = "triceps"
	MuscleForearms  = "forearms"
	MuscleCore      = "core"
	MuscleQuads     = "quadriceps"
	MuscleHamstring = "hamstrings"
	MuscleGlutes    = "glutes"
	MuscleCalves    = "calves"
	MuscleLegs      = "legs"
)

// muscleGroupMap maps lowercased muscle names, as the mobile client sends
// them, to canonical catalog names. Covers English and Russian labels.
var muscleGroupMap = map[string]string{
	// English
	"chest":      MuscleChest,
	"pecs":       MuscleChest,
	"back":       MuscleBack,
	"lats":       MuscleBack,
	"shoulders":  MuscleShoulders,
	"delts":      MuscleShoulders,
	"biceps":     MuscleBiceps,
	"triceps":    MuscleTriceps,
	"forearms":   MuscleForearms,
	"core":       MuscleCore,
	"abs":        MuscleCore,
	"quadriceps": MuscleQuads,
	"quads":      MuscleQuads,
	"hamstrings": MuscleHamstring,
	"glutes":     MuscleGlutes,
	"calves":     MuscleCalves,
	"legs":       MuscleLegs,

	// Russian
	"грудные":      MuscleChest,
	"грудь":        MuscleChest,
	"спина":        MuscleBack,
	"плечи":        MuscleShoulders,
	"бицепс":       MuscleBiceps,
	"трицепс":      MuscleTriceps,
	"предплечья":   MuscleForearms,
	"пресс":        MuscleCore,
	"кор":          MuscleCore,
	"квадрицепсы":  MuscleQuads,
	"бицепс бедра": MuscleHamstring,
	"ягодицы":      MuscleGlutes,
	"икры":         MuscleCalves,
	"ноги":         MuscleLegs,
}

// NormalizeMuscle maps a possibly-localized muscle group name to its
// canonical catalog name. Returns the canonical name and true if
// recognized, or the lowercased input and false if unknown.
func NormalizeMuscle(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := muscleGroupMap[lower]; ok {
		return canonical, true
	}
	return lower, false
}
