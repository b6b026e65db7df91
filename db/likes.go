package db

import (
	"context"
	"database/sql"
	"fmt"
)

// ToggleLike flips the user's like on a post and keeps likes_count in step.
// It returns the new state and counter.
func (d *DB) ToggleLike(ctx context.Context, userID, postID string) (liked bool, count int, err error) {
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO likes (user_id, post_id) VALUES ($1, $2)
			ON CONFLICT (user_id, post_id) DO NOTHING`, userID, postID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert like: %w", err)
		}

		delta := `likes_count + 1`
		liked = true
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID); err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
			delta = `GREATEST(likes_count - 1, 0)`
			liked = false
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE posts SET likes_count = `+delta+` WHERE id = $1 RETURNING likes_count`, postID).Scan(&count)
		if err != nil {
			return notFound(err)
		}
		return nil
	})
	return liked, count, err
}

// ToggleSave flips the user's bookmark on a post.
func (d *DB) ToggleSave(ctx context.Context, userID, postID string) (saved bool, err error) {
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO saved_posts (user_id, post_id) VALUES ($1, $2)
			ON CONFLICT (user_id, post_id) DO NOTHING`, userID, postID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert save: %w", err)
		}
		saved = true
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`, userID, postID); err != nil {
				return fmt.Errorf("delete save: %w", err)
			}
			saved = false
		}
		return nil
	})
	return saved, err
}

// Engagement reports whether the viewer liked and saved a post.
func (d *DB) Engagement(ctx context.Context, userID, postID string) (liked, saved bool, err error) {
	err = d.Db.QueryRowContext(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2),
			EXISTS (SELECT 1 FROM saved_posts WHERE user_id = $1 AND post_id = $2)`,
		userID, postID).Scan(&liked, &saved)
	if err != nil {
		return false, false, fmt.Errorf("engagement: %w", err)
	}
	return liked, saved, nil
}
