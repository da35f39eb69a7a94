package service

import (
	"context"

	"github.com/noah-isme/studentdesk/internal/models"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

type auditReader interface {
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// AuditService exposes the read side of the audit trail.
type AuditService struct {
	repo      auditReader
	viewLimit int
}

// NewAuditService constructs an AuditService capped at viewLimit entries.
func NewAuditService(repo auditReader, viewLimit int) *AuditService {
	if viewLimit <= 0 {
		viewLimit = 1000
	}
	return &AuditService{repo: repo, viewLimit: viewLimit}
}

// Recent returns the latest entries, most recent first.
func (s *AuditService) Recent(ctx context.Context) ([]models.AuditEntry, error) {
	entries, err := s.repo.Recent(ctx, s.viewLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load audit trail")
	}
	return entries, nil
}
