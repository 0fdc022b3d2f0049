package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edgeplane/corectl/internal/storage"
)

// PutInterest persists a callback subscription so it survives a daemon
// restart (the supplemented interests table, spec.md 4.8). argv, when
// non-empty, is recorded so Load can re-register the same external
// callback on reopen; pass nil for an in-process handler.
func (s *SQLiteStorage) PutInterest(ctx context.Context, category, callbackID string, argv []string) error {
	var encoded string
	if len(argv) > 0 {
		b, err := json.Marshal(argv)
		if err != nil {
			return fmt.Errorf("encode argv for interest %s/%s: %w", category, callbackID, err)
		}
		encoded = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interests (category, callback_id, argv) VALUES (?, ?, ?)
		ON CONFLICT(category, callback_id) DO UPDATE SET argv = excluded.argv
	`, category, callbackID, encoded)
	if err != nil {
		return fmt.Errorf("put interest %s/%s: %w", category, callbackID, err)
	}
	return nil
}

// RemoveInterest drops a previously persisted subscription.
func (s *SQLiteStorage) RemoveInterest(ctx context.Context, category, callbackID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM interests WHERE category = ? AND callback_id = ?
	`, category, callbackID)
	if err != nil {
		return fmt.Errorf("remove interest %s/%s: %w", category, callbackID, err)
	}
	return nil
}

// AllInterests returns every persisted subscription, including the argv of
// any external callback, for the callback registry to restore at boot.
func (s *SQLiteStorage) AllInterests(ctx context.Context) ([]storage.Interest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, callback_id, argv FROM interests ORDER BY category, callback_id`)
	if err != nil {
		return nil, fmt.Errorf("all interests: %w", err)
	}
	defer rows.Close()

	var out []storage.Interest
	for rows.Next() {
		var category, id, argv string
		if err := rows.Scan(&category, &id, &argv); err != nil {
			return nil, err
		}
		interest := storage.Interest{Category: category, CallbackID: id}
		if argv != "" {
			if err := json.Unmarshal([]byte(argv), &interest.Argv); err != nil {
				return nil, fmt.Errorf("decode argv for interest %s/%s: %w", category, id, err)
			}
		}
		out = append(out, interest)
	}
	return out, rows.Err()
}
