package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/trainplan/internal/models"
	"github.com/google/uuid"
)

// ListAchievements returns a user's achievements, newest first.
func (db *DB) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.AchievementRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, icon, date_earned
		 FROM achievements
		 WHERE user_id = $1
		 ORDER BY date_earned DESC, name ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying achievements: %w", err)
	}
	defer rows.Close()

	var result []models.AchievementRow
	for rows.Next() {
		var a models.AchievementRow
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Icon, &a.DateEarned); err != nil {
			return nil, fmt.Errorf("scanning achievement: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CountAchievements returns the number of achievements a user holds.
func (db *DB) CountAchievements(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*)::int FROM achievements WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting achievements: %w", err)
	}
	return n, nil
}

// InsertAchievements batch-inserts achievements in one statement. Rows that
// collide with an existing (user_id, name) pair are dropped; only the rows
// actually written are returned.
func (db *DB) InsertAchievements(ctx context.Context, rows []models.AchievementRow) ([]models.AchievementRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	query := `INSERT INTO achievements (id, user_id, name, icon, date_earned) VALUES `
	args := make([]any, 0, len(rows)*5)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args, r.ID, r.UserID, r.Name, r.Icon, r.DateEarned)
	}

	query += strings.Join(valueStrings, ",") +
		" ON CONFLICT (user_id, name) DO NOTHING RETURNING id, user_id, name, icon, date_earned"

	result, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting achievements: %w", err)
	}
	defer result.Close()

	var inserted []models.AchievementRow
	for result.Next() {
		var a models.AchievementRow
		if err := result.Scan(&a.ID, &a.UserID, &a.Name, &a.Icon, &a.DateEarned); err != nil {
			return nil, fmt.Errorf("scanning inserted achievement: %w", err)
		}
		inserted = append(inserted, a)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("inserting achievements: %w", err)
	}
	return inserted, nil
}
