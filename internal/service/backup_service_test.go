package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studentdesk/internal/models"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

func TestBackupCreatesTimestampedSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "students.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("db-bytes"), 0o644))

	audit := &mockAudit{}
	svc := NewBackupService(dbPath, dir, audit, nil)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	}

	path, err := svc.Backup(context.Background(), adminSession())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_20240315_093045.db"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("db-bytes"), data)
	assert.Contains(t, audit.actions(), models.AuditActionBackup)
}

func TestBackupSameSecondOverwrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "students.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("v1"), 0o644))

	svc := NewBackupService(dbPath, dir, &mockAudit{}, nil)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	}

	first, err := svc.Backup(context.Background(), adminSession())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dbPath, []byte("v2"), 0o644))
	second, err := svc.Backup(context.Background(), adminSession())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestRestoreReplacesLiveFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "students.db")
	snapshot := filepath.Join(dir, "snapshot.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("current"), 0o644))
	require.NoError(t, os.WriteFile(snapshot, []byte("older"), 0o644))

	audit := &mockAudit{}
	svc := NewBackupService(dbPath, dir, audit, nil)

	require.NoError(t, svc.Restore(context.Background(), adminSession(), snapshot))
	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("older"), data)
	assert.Contains(t, audit.actions(), models.AuditActionRestore)
}

func TestRestoreMissingSource(t *testing.T) {
	dir := t.TempDir()
	svc := NewBackupService(filepath.Join(dir, "students.db"), dir, &mockAudit{}, nil)

	err := svc.Restore(context.Background(), adminSession(), filepath.Join(dir, "absent.db"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrFileAccess))
}

func TestBackupRequiresSession(t *testing.T) {
	dir := t.TempDir()
	svc := NewBackupService(filepath.Join(dir, "students.db"), dir, &mockAudit{}, nil)

	_, err := svc.Backup(context.Background(), nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
	err = svc.Restore(context.Background(), nil, "x")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
}
