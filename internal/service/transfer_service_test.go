package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studentdesk/internal/models"
	"github.com/noah-isme/studentdesk/pkg/export"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
	"github.com/noah-isme/studentdesk/pkg/storage"
)

func (m *mockStudentRepo) ListAll(ctx context.Context) ([]models.Student, error) {
	out := make([]models.Student, 0, len(m.students))
	for id := int64(1); id <= m.nextID; id++ {
		if s, ok := m.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTransfer(t *testing.T, repo *mockStudentRepo, audit *mockAudit) *TransferService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewTransferService(repo, audit, NewValidator(), store, export.NewCSVExporter(), export.NewExcelExporter(), export.NewPDFExporter(), nil)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTransferImportSkipsInvalidRows(t *testing.T) {
	repo := newMockStudentRepo()
	audit := &mockAudit{}
	svc := newTransfer(t, repo, audit)

	path := writeCSV(t, "Name,Roll,Course,Marks\nAmy,1,CS,90\n,2,CS,80\n")
	summary, err := svc.Import(context.Background(), adminSession(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Inserted)
	assert.Len(t, repo.students, 1)
	assert.Contains(t, audit.actions(), models.AuditActionImport)
}

func TestTransferImportCoercesDecimalMarks(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTransfer(t, repo, &mockAudit{})

	path := writeCSV(t, "name,roll,course,marks\nAmy,1,CS,72.0\nBen,2,CS,not-a-number\n")
	summary, err := svc.Import(context.Background(), adminSession(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 2, summary.Total)
	require.Len(t, repo.students, 1)
	for _, s := range repo.students {
		assert.Equal(t, 72, s.Marks)
	}
}

func TestTransferImportSkipsDuplicateRolls(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTransfer(t, repo, &mockAudit{})

	path := writeCSV(t, "name,roll,course,marks\nAmy,1,CS,90\nBen,1,CS,80\n")
	summary, err := svc.Import(context.Background(), adminSession(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Len(t, repo.students, 1)
}

func TestTransferImportSchemaMismatch(t *testing.T) {
	svc := newTransfer(t, newMockStudentRepo(), &mockAudit{})

	path := writeCSV(t, "name,roll,marks\nAmy,1,90\n")
	_, err := svc.Import(context.Background(), adminSession(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSchemaMismatch))
}

func TestTransferImportMissingFile(t *testing.T) {
	svc := newTransfer(t, newMockStudentRepo(), &mockAudit{})

	_, err := svc.Import(context.Background(), adminSession(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrFileAccess))
}

func TestTransferExportImportRoundTrip(t *testing.T) {
	source := newMockStudentRepo()
	audit := &mockAudit{}
	svc := newTransfer(t, source, audit)
	ctx := context.Background()

	seed := []models.Student{
		{Name: "Amy Pond", Roll: "1", Course: "CS", Marks: 90},
		{Name: "Ben Li", Roll: "2", Course: "MCA", Marks: 72},
		{Name: "Cara Diaz", Roll: "3", Course: "B.Sc", Marks: 55},
	}
	for i := range seed {
		require.NoError(t, source.Create(ctx, &seed[i]))
	}

	path, err := svc.ExportCSV(ctx, adminSession(), "roster.csv")
	require.NoError(t, err)
	assert.Contains(t, audit.actions(), models.AuditActionExportCSV)

	target := newMockStudentRepo()
	reimport := newTransfer(t, target, &mockAudit{})
	summary, err := reimport.Import(ctx, adminSession(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Inserted)
	assert.Equal(t, 3, summary.Total)

	type tuple struct {
		name, roll, course string
		marks              int
	}
	collect := func(m *mockStudentRepo) map[tuple]bool {
		set := make(map[tuple]bool)
		for _, s := range m.students {
			set[tuple{s.Name, s.Roll, s.Course, s.Marks}] = true
		}
		return set
	}
	assert.Equal(t, collect(source), collect(target))
}

func TestTransferExportExcelThenImportRoundTrip(t *testing.T) {
	source := newMockStudentRepo()
	audit := &mockAudit{}
	svc := newTransfer(t, source, audit)
	ctx := context.Background()

	seed := []models.Student{
		{Name: "Amy Pond", Roll: "1", Course: "CS", Marks: 90},
		{Name: "Ben Li", Roll: "2", Course: "MCA", Marks: 72},
	}
	for i := range seed {
		require.NoError(t, source.Create(ctx, &seed[i]))
	}

	path, err := svc.ExportExcel(ctx, adminSession(), "roster.xlsx")
	require.NoError(t, err)
	assert.Contains(t, audit.actions(), models.AuditActionExportExcel)

	target := newMockStudentRepo()
	reimport := newTransfer(t, target, &mockAudit{})
	summary, err := reimport.Import(ctx, adminSession(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 2, summary.Total)

	require.Len(t, target.students, 2)
	for _, want := range seed {
		found := false
		for _, got := range target.students {
			if got.Roll == want.Roll {
				found = true
				assert.Equal(t, want.Name, got.Name)
				assert.Equal(t, want.Course, got.Course)
				assert.Equal(t, want.Marks, got.Marks)
			}
		}
		assert.True(t, found, "roll %s missing after reimport", want.Roll)
	}
}

func TestTransferExportPDF(t *testing.T) {
	repo := newMockStudentRepo()
	audit := &mockAudit{}
	svc := newTransfer(t, repo, audit)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Student{Name: "Amy", Roll: "1", Course: "CS", Marks: 90}))

	path, err := svc.ExportPDF(ctx, adminSession(), "roster.pdf")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Contains(t, audit.actions(), models.AuditActionExportPDF)
}

func TestTransferRequiresSession(t *testing.T) {
	svc := newTransfer(t, newMockStudentRepo(), &mockAudit{})

	_, err := svc.Import(context.Background(), nil, "whatever.csv")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
	_, err = svc.ExportCSV(context.Background(), nil, "out.csv")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
	_, err = svc.ExportExcel(context.Background(), nil, "out.xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
}
