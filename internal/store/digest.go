package store

import (
	"context"
	"fmt"

	"github.com/starford/devflow/internal/models"
)

// SaveDigest stores d as the user's only digest, replacing any previous one.
func (db *DB) SaveDigest(ctx context.Context, d models.Digest) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO digests (user_id, week_label, summary, generated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			week_label   = excluded.week_label,
			summary      = excluded.summary,
			generated_at = excluded.generated_at
	`, d.UserID, d.WeekLabel, d.Summary, formatTime(d.GeneratedAt))
	if err != nil {
		return fmt.Errorf("store: save digest: %w", err)
	}
	return nil
}

// GetDigest returns the user's digest or apperr.ErrNotFound.
func (db *DB) GetDigest(ctx context.Context, userID string) (*models.Digest, error) {
	var (
		d           models.Digest
		generatedAt string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, week_label, summary, generated_at FROM digests WHERE user_id = ?`, userID,
	).Scan(&d.UserID, &d.WeekLabel, &d.Summary, &generatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	d.GeneratedAt = parseTime(generatedAt)
	return &d, nil
}
