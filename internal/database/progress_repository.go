package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/verbbot/pkg/models"
)

// SetVerbOfDay assigns the verb of day at most once per day. A row from a
// previous day is superseded together with its sent tenses in one transaction.
// It returns the verb actually stored for day and whether this call assigned it.
func (s *Store) SetVerbOfDay(ctx context.Context, userID int64, infinitive, day string) (string, bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The conditional upsert keeps today's row untouched even if another
	// process races us on the same user.
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO daily_progress (user_id, verb, day_key, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			verb = excluded.verb,
			day_key = excluded.day_key,
			updated_at = excluded.updated_at
		WHERE daily_progress.day_key <> excluded.day_key
	`), userID, infinitive, day, time.Now().UTC())
	if err != nil {
		return "", false, fmt.Errorf("failed to set verb of day for user %d: %w", userID, err)
	}
	assigned, err := res.RowsAffected()
	if err != nil {
		return "", false, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM sent_tenses WHERE user_id = ? AND day_key <> ?"), userID, day); err != nil {
		return "", false, fmt.Errorf("failed to clear sent tenses for user %d: %w", userID, err)
	}

	var stored string
	if err := tx.GetContext(ctx, &stored, tx.Rebind("SELECT verb FROM daily_progress WHERE user_id = ? AND day_key = ?"), userID, day); err != nil {
		return "", false, fmt.Errorf("failed to read verb of day for user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("failed to commit verb of day for user %d: %w", userID, err)
	}
	return stored, assigned > 0, nil
}

// CurrentVerb returns the verb of day only if it was chosen for day
func (s *Store) CurrentVerb(ctx context.Context, userID int64, day string) (string, bool, error) {
	var verb string
	err := s.db.GetContext(ctx, &verb, s.db.Rebind("SELECT verb FROM daily_progress WHERE user_id = ? AND day_key = ?"), userID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get current verb for user %d: %w", userID, err)
	}
	return verb, true, nil
}

// SentTenses returns tenses delivered on day in delivery order
func (s *Store) SentTenses(ctx context.Context, userID int64, day string) ([]string, error) {
	tenses := []string{}
	err := s.db.SelectContext(ctx, &tenses, s.db.Rebind(`
		SELECT tense FROM sent_tenses
		WHERE user_id = ? AND day_key = ?
		ORDER BY sent_at, tense
	`), userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get sent tenses for user %d: %w", userID, err)
	}
	return tenses, nil
}

// Progress returns the user's progress for day, or nil if no verb was chosen that day
func (s *Store) Progress(ctx context.Context, userID int64, day string) (*models.DailyProgress, error) {
	var progress models.DailyProgress
	err := s.db.GetContext(ctx, &progress, s.db.Rebind(`
		SELECT user_id, verb, day_key, updated_at FROM daily_progress
		WHERE user_id = ? AND day_key = ?
	`), userID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for user %d: %w", userID, err)
	}

	progress.TensesSent, err = s.SentTenses(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ErrStaleProgress is returned when a tense is marked for a verb that is no
// longer the user's verb of day
var ErrStaleProgress = errors.New("progress was replaced")

// MarkTenseSent records a tense delivered for verb on day; marking it twice
// is a no-op. If the progress row for verb and day is gone (reset or
// replaced meanwhile) nothing is written and ErrStaleProgress is returned.
func (s *Store) MarkTenseSent(ctx context.Context, userID int64, verb, tense, day string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO sent_tenses (user_id, tense, day_key, sent_at)
		SELECT ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM daily_progress WHERE user_id = ? AND day_key = ? AND verb = ?
		)
		ON CONFLICT (user_id, tense, day_key) DO NOTHING
	`), userID, tense, day, time.Now().UTC(), userID, day, verb)
	if err != nil {
		return fmt.Errorf("failed to mark tense %q sent for user %d: %w", tense, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	// Nothing inserted: either a repeat or the progress no longer matches
	var current int
	err = s.db.GetContext(ctx, &current, s.db.Rebind(
		"SELECT COUNT(*) FROM daily_progress WHERE user_id = ? AND day_key = ? AND verb = ?"), userID, day, verb)
	if err != nil {
		return fmt.Errorf("failed to check progress of user %d: %w", userID, err)
	}
	if current == 0 {
		return fmt.Errorf("%w: user %d has no verb %q on %s", ErrStaleProgress, userID, verb, day)
	}
	return nil
}

// ResetDailyProgress drops the verb of day and every sent tense of the user
func (s *Store) ResetDailyProgress(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM sent_tenses WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to reset sent tenses for user %d: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM daily_progress WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to reset progress for user %d: %w", userID, err)
	}
	return tx.Commit()
}

// ResetSentTenses forgets the tenses delivered on day, keeping the verb
func (s *Store) ResetSentTenses(ctx context.Context, userID int64, day string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM sent_tenses WHERE user_id = ? AND day_key = ?"), userID, day)
	if err != nil {
		return fmt.Errorf("failed to reset sent tenses for user %d: %w", userID, err)
	}
	return nil
}
