package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studentdesk/internal/models"
)

// UserRepository reads the static credential table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByCredentials returns the credential matching the exact username and
// password pair. Comparison is case-sensitive plaintext, kept as-is from the
// system this replaces. sql.ErrNoRows signals no match.
func (r *UserRepository) FindByCredentials(ctx context.Context, username, password string) (*models.Credential, error) {
	const query = `SELECT username, password, role FROM users WHERE username = ? AND password = ?`
	var cred models.Credential
	if err := r.db.GetContext(ctx, &cred, query, username, password); err != nil {
		return nil, err
	}
	return &cred, nil
}
