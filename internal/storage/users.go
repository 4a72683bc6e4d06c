package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// UpsertUser creates the user or updates a non-empty display name. The
// original created_at is kept on conflict.
func (db *DB) UpsertUser(ctx context.Context, row models.UserRow) (*models.UserRow, error) {
	var u models.UserRow
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, display_name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
			SET display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id, display_name, created_at
	`, row.ID, row.DisplayName, row.CreatedAt).Scan(&u.ID, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return &u, nil
}

// GetUser returns a user by ID.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*models.UserRow, error) {
	var u models.UserRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, display_name, created_at FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", notFound(err))
	}
	return &u, nil
}

// ActiveUserIDs returns users with a workout dated on or after since, or an
// account created on or after since.
func (db *DB) ActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT user_id FROM workouts WHERE date >= $1::date
		UNION
		SELECT id FROM users WHERE created_at >= $1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("querying active users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning active user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
