// Package catalog loads the exercise catalog from YAML files and imports it
// into the database.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/claude/trainplan/internal/models"
	"gopkg.in/yaml.v3"
)

// File is the YAML document layout:
//
//	exercises:
//	  - id: pushups
//	    name: Push-ups
//	    muscles: [chest, triceps]
//	    inventory: []
type File struct {
	Exercises []models.Exercise `yaml:"exercises"`
}

// Parse decodes a catalog document. Unknown keys are rejected.
func Parse(r io.Reader) ([]models.Exercise, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return f.Exercises, nil
}

// LoadFile reads, parses and normalizes a catalog file.
func LoadFile(path string) ([]models.Exercise, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	exercises, err := Parse(f)
	if err != nil {
		return nil, err
	}
	Normalize(exercises)
	if err := Validate(exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Normalize trims text fields, maps muscle names onto canonical catalog
// names and lowercases inventory tags, in place.
func Normalize(exercises []models.Exercise) {
	for i := range exercises {
		ex := &exercises[i]
		ex.ID = strings.TrimSpace(ex.ID)
		ex.Name = strings.TrimSpace(ex.Name)
		ex.Description = strings.TrimSpace(ex.Description)
		ex.Tips = strings.TrimSpace(ex.Tips)
		ex.ImageURL = strings.TrimSpace(ex.ImageURL)

		muscles := make([]string, 0, len(ex.Muscles))
		for _, m := range ex.Muscles {
			name, _ := models.NormalizeMuscle(m)
			if name != "" && !slices.Contains(muscles, name) {
				muscles = append(muscles, name)
			}
		}
		ex.Muscles = muscles

		inventory := make([]string, 0, len(ex.Inventory))
		for _, tag := range ex.Inventory {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" && !slices.Contains(inventory, tag) {
				inventory = append(inventory, tag)
			}
		}
		ex.Inventory = inventory
	}
}

// Validate reports every entry without an id or name and every duplicate id.
func Validate(exercises []models.Exercise) error {
	var errs []error
	seen := make(map[string]int, len(exercises))
	for i, ex := range exercises {
		if ex.ID == "" {
			errs = append(errs, fmt.Errorf("exercise #%d: id is required", i+1))
		} else if first, dup := seen[ex.ID]; dup {
			errs = append(errs, fmt.Errorf("exercise #%d: id %q already used by #%d", i+1, ex.ID, first+1))
		} else {
			seen[ex.ID] = i
		}
		if ex.Name == "" {
			errs = append(errs, fmt.Errorf("exercise #%d: name is required", i+1))
		}
	}
	return errors.Join(errs...)
}
