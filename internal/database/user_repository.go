package database

import (
	"context"
	"fmt"
	"time"
)

// UserExists reports whether the user has contacted the bot before
func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM users WHERE user_id = ?"), userID)
	if err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	return count > 0, nil
}

// CreateUser registers the user; creating an existing user is a no-op
func (s *Store) CreateUser(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (user_id, created_at) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`), userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to create user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AllUserIDs returns every registered user
func (s *Store) AllUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT user_id FROM users ORDER BY user_id"); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return ids, nil
}
