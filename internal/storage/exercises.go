package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/trainplan/internal/models"
)

// ListExercises returns the whole exercise catalog ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, description, tips, image_url, muscles, inventory
		 FROM exercises ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Tips, &e.ImageURL, &e.Muscles, &e.Inventory); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpsertExercises batch-upserts catalog entries by id. Returns the number
// of rows written.
func (db *DB) UpsertExercises(ctx context.Context, exercises []models.Exercise) (int64, error) {
	if len(exercises) == 0 {
		return 0, nil
	}

	query := `INSERT INTO exercises (id, name, description, tips, image_url, muscles, inventory) VALUES `
	args := make([]any, 0, len(exercises)*7)
	valueStrings := make([]string, 0, len(exercises))

	for i, e := range exercises {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, e.ID, e.Name, e.Description, e.Tips, e.ImageURL,
			nonNil(e.Muscles), nonNil(e.Inventory))
	}

	query += strings.Join(valueStrings, ",") + ` ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, description = EXCLUDED.description, tips = EXCLUDED.tips,
		image_url = EXCLUDED.image_url, muscles = EXCLUDED.muscles, inventory = EXCLUDED.inventory,
		updated_at = NOW()`

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("upserting exercises: %w", err)
	}
	return tag.RowsAffected(), nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
