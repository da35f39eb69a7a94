package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studentdesk/internal/models"
)

// AuditRepository appends to and reads from the audit trail. Entries are
// never updated or deleted.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends one audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	if entry.TS.IsZero() {
		entry.TS = time.Now().UTC()
	}
	const query = `INSERT INTO audit_log (ts, user, role, action, details)
        VALUES (:ts, :user, :role, :action, :details)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, most recent first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	entries := []models.AuditEntry{}
	const query = `SELECT id, ts, user, role, action, details FROM audit_log ORDER BY id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
