package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditStore = (*AuditRepo)(nil)

// AuditRepo is the SQLite implementation of the AuditStore port interface.
// It only ever inserts and reads; audit rows are never updated or deleted.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new AuditRepo backed by the given DB.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append records an audit entry. A zero CreatedAt is stamped with the current time.
func (r *AuditRepo) Append(ctx context.Context, entry model.AuditEntry) error {
	const query = `INSERT INTO audit_log (username, action, created_at) VALUES (?, ?, ?)`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, entry.Username, entry.Action, createdAt.UTC()); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

// Recent returns up to limit audit entries, newest first.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	const query = `SELECT id, username, action, created_at FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.Username, &entry.Action, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
