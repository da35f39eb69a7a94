package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/studentdesk/internal/models"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

type credentialRepository interface {
	FindByCredentials(ctx context.Context, username, password string) (*models.Credential, error)
}

// AuthService authenticates against the static credential table and issues
// in-memory sessions. The plaintext comparison is a known weakness kept from
// the system this replaces.
type AuthService struct {
	repo   credentialRepository
	audit  auditRecorder
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo credentialRepository, audit auditRecorder, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, audit: audit, logger: logger}
}

// Login checks the username/password pair and returns a session on success.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username and password are required")
	}

	cred, err := s.repo.FindByCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to check credentials")
	}

	session := &models.Session{User: cred.Username, Role: cred.Role}
	s.record(ctx, session, models.AuditActionLogin, "successful login")
	return session, nil
}

// Guest issues the Guest pseudo-role session. It always succeeds.
func (s *AuthService) Guest(ctx context.Context) *models.Session {
	session := &models.Session{User: "guest", Role: models.RoleGuest}
	s.record(ctx, session, models.AuditActionLogin, "guest login")
	return session
}

// Logout records the end of a session. The session value itself is simply
// discarded by the caller.
func (s *AuthService) Logout(ctx context.Context, session *models.Session) {
	if session == nil {
		return
	}
	s.record(ctx, session, models.AuditActionLogout, "user logged out")
}

func (s *AuthService) record(ctx context.Context, session *models.Session, action, details string) {
	err := s.audit.Create(ctx, &models.AuditEntry{
		User:    session.User,
		Role:    session.Role,
		Action:  action,
		Details: details,
	})
	if err != nil {
		s.logger.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}
