package shell

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studentdesk/internal/models"
	"github.com/noah-isme/studentdesk/internal/service"
)

// scriptedRepo is an in-memory store that counts Search calls so tests can
// assert how many fetches one render costs.
type scriptedRepo struct {
	students []models.Student
	searches int
}

func (r *scriptedRepo) Create(ctx context.Context, s *models.Student) error {
	s.ID = int64(len(r.students) + 1)
	r.students = append(r.students, *s)
	return nil
}

func (r *scriptedRepo) InsertRow(ctx context.Context, s models.Student) error {
	r.students = append(r.students, s)
	return nil
}

func (r *scriptedRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	for _, s := range r.students {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *scriptedRepo) ExistsByRoll(ctx context.Context, roll string, excludeID int64) (bool, error) {
	for _, s := range r.students {
		if s.Roll == roll && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *scriptedRepo) Update(ctx context.Context, s *models.Student) error { return nil }

func (r *scriptedRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *scriptedRepo) DeleteByRoll(ctx context.Context, roll string) error { return nil }

func (r *scriptedRepo) Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	r.searches++
	total := len(r.students)
	if filter.Offset >= total {
		return []models.Student{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return r.students[filter.Offset:end], total, nil
}

func (r *scriptedRepo) CountAll(ctx context.Context) (int, error) { return len(r.students), nil }

func (r *scriptedRepo) ListAll(ctx context.Context) ([]models.Student, error) {
	return r.students, nil
}

func (r *scriptedRepo) CountByCourse(ctx context.Context) ([]models.CourseCount, error) {
	return nil, nil
}

func (r *scriptedRepo) Marks(ctx context.Context) ([]int, error) { return nil, nil }

type nopAudit struct{}

func (nopAudit) Create(ctx context.Context, entry *models.AuditEntry) error { return nil }

func (nopAudit) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	return nil, nil
}

type noCreds struct{}

func (noCreds) FindByCredentials(ctx context.Context, username, password string) (*models.Credential, error) {
	return nil, sql.ErrNoRows
}

func newTestShell(t *testing.T, repo *scriptedRepo, input string, out *bytes.Buffer) *Shell {
	t.Helper()
	audit := nopAudit{}
	auth := service.NewAuthService(noCreds{}, audit, nil)
	students := service.NewStudentService(repo, audit, nil, nil, 2)
	transfer := service.NewTransferService(repo, audit, nil, nil, nil, nil, nil, nil)
	backup := service.NewBackupService("students.db", t.TempDir(), audit, nil)
	reports := service.NewReportService(repo, audit, nil, nil, nil)
	auditView := service.NewAuditService(audit, 10)
	return New(auth, students, transfer, backup, reports, auditView, strings.NewReader(input), out)
}

func TestShellPageRenderQueryCost(t *testing.T) {
	repo := &scriptedRepo{students: []models.Student{
		{ID: 1, Name: "Alice", Roll: "1", Course: "CS", Marks: 80},
		{ID: 2, Name: "Bob", Roll: "2", Course: "CS", Marks: 70},
		{ID: 3, Name: "Cara", Roll: "3", Course: "MCA", Marks: 60},
	}}
	out := &bytes.Buffer{}
	sh := newTestShell(t, repo, "guest\nlist\nquit\n", out)

	require.NoError(t, sh.Run(context.Background()))

	// An in-range render costs exactly one fetch.
	assert.Equal(t, 1, repo.searches)
	assert.Contains(t, out.String(), "page 1/2")
}

func TestShellClampsOutOfRangePage(t *testing.T) {
	repo := &scriptedRepo{students: []models.Student{
		{ID: 1, Name: "Alice", Roll: "1", Course: "CS", Marks: 80},
		{ID: 2, Name: "Bob", Roll: "2", Course: "CS", Marks: 70},
		{ID: 3, Name: "Cara", Roll: "3", Course: "MCA", Marks: 60},
	}}
	out := &bytes.Buffer{}
	sh := newTestShell(t, repo, "guest\npage 99\nquit\n", out)

	require.NoError(t, sh.Run(context.Background()))

	// Clamping needs a second fetch after learning the true page count.
	assert.Equal(t, 2, repo.searches)
	assert.Contains(t, out.String(), "page 2/2")
	assert.Contains(t, out.String(), "Cara")
}

func TestShellParseStudentArgs(t *testing.T) {
	in, id, err := parseStudentArgs("Amy Pond; 42; B.Sc; 81", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
	assert.Equal(t, "Amy Pond", in.Name)
	assert.Equal(t, "42", in.Roll)
	assert.Equal(t, "B.Sc", in.Course)
	assert.Equal(t, 81, in.Marks)

	in, id, err = parseStudentArgs("7;Amy;42;B.Sc;81", true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "Amy", in.Name)

	_, _, err = parseStudentArgs("Amy;42;B.Sc", false)
	assert.Error(t, err)
}
