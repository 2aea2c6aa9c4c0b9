package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

// Save inserts a new record. Records are immutable, so an existing id is
// an error.
func (s *SQLStore) Save(ctx context.Context, r *scan.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal scan: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO scans (id, user_id, created_at, document) VALUES (?, ?, ?, ?)`),
		r.ID, r.UserID, r.CreatedAt.UnixNano(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	return nil
}

// Get retrieves a record by id, returning scan.ErrNotFound if it does not
// exist.
func (s *SQLStore) Get(ctx context.Context, id string) (*scan.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT document FROM scans WHERE id = ?`), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan: %w", err)
	}

	return decodeRecord(doc)
}

// ListByUser returns up to limit records owned by userID, newest first.
func (s *SQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]*scan.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT document FROM scans WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	records := []*scan.Record{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r, err := decodeRecord(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// DeleteByUser removes every record owned by userID and returns how many
// were removed.
func (s *SQLStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM scans WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scans: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted scans: %w", err)
	}
	return n, nil
}

func decodeRecord(doc string) (*scan.Record, error) {
	var r scan.Record
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan: %w", err)
	}
	return &r, nil
}
