package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studentdesk/internal/models"
	"github.com/noah-isme/studentdesk/pkg/export"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

// requiredImportHeaders is the minimum column set an import file must carry.
var requiredImportHeaders = []string{"name", "roll", "course", "marks"}

// exportHeaders fixes the column order of every export.
var exportHeaders = []string{"id", "name", "roll", "course", "marks", "created_at"}

type transferRepository interface {
	Create(ctx context.Context, student *models.Student) error
	ListAll(ctx context.Context) ([]models.Student, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type excelRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ImportSummary reports the outcome of one import batch.
type ImportSummary struct {
	Inserted int
	Total    int
}

// TransferService moves roster rows between the store and flat tabular
// files. Imports run each row through the same validation as manual entry;
// a bad row is skipped, never aborts the batch.
type TransferService struct {
	repo      transferRepository
	audit     auditRecorder
	validator *validator.Validate
	storage   fileStorage
	csv       csvRenderer
	xlsx      excelRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewTransferService constructs a TransferService.
func NewTransferService(repo transferRepository, audit auditRecorder, validate *validator.Validate, storage fileStorage, csv csvRenderer, xlsx excelRenderer, pdf pdfRenderer, logger *zap.Logger) *TransferService {
	if validate == nil {
		validate = NewValidator()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if xlsx == nil {
		xlsx = export.NewExcelExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		storage:   storage,
		csv:       csv,
		xlsx:      xlsx,
		pdf:       pdf,
		logger:    logger,
	}
}

// Import reads a tabular file and inserts its rows. Rows failing validation,
// marks parsing or roll uniqueness are skipped and counted against the total.
func (s *TransferService) Import(ctx context.Context, session *models.Session, path string) (*ImportSummary, error) {
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "login required to import")
	}

	dataset, err := export.ReadTabular(path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFileAccess.Code, "cannot read import file")
	}
	if !dataset.HasHeaders(requiredImportHeaders...) {
		return nil, appErrors.Clone(appErrors.ErrSchemaMismatch,
			fmt.Sprintf("import file must contain columns: %v", requiredImportHeaders))
	}

	batch := uuid.NewString()
	summary := &ImportSummary{Total: len(dataset.Rows)}
	for _, row := range dataset.Rows {
		marks, err := parseMarks(row["marks"])
		if err != nil {
			continue
		}
		in := StudentInput{
			Name:   row["name"],
			Roll:   row["roll"],
			Course: row["course"],
			Marks:  marks,
		}
		if fields := ValidateStudent(s.validator, in); fields != nil {
			continue
		}
		student := &models.Student{Name: in.Name, Roll: in.Roll, Course: in.Course, Marks: in.Marks}
		if err := s.repo.Create(ctx, student); err != nil {
			continue
		}
		summary.Inserted++
	}

	s.record(ctx, session, models.AuditActionImport,
		fmt.Sprintf("%s|batch=%s|inserted=%d/%d", path, batch, summary.Inserted, summary.Total))
	return summary, nil
}

// ExportCSV writes the full roster to a CSV file and returns the path.
func (s *TransferService) ExportCSV(ctx context.Context, session *models.Session, filename string) (string, error) {
	if session == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "login required to export")
	}
	dataset, err := s.buildDataset(ctx)
	if err != nil {
		return "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to render csv")
	}
	path, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrFileAccess.Code, "cannot write export file")
	}
	s.record(ctx, session, models.AuditActionExportCSV, path)
	return path, nil
}

// ExportExcel writes the full roster to an XLSX workbook and returns the
// path.
func (s *TransferService) ExportExcel(ctx context.Context, session *models.Session, filename string) (string, error) {
	if session == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "login required to export")
	}
	dataset, err := s.buildDataset(ctx)
	if err != nil {
		return "", err
	}
	payload, err := s.xlsx.Render(dataset, "Students")
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to render xlsx")
	}
	path, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrFileAccess.Code, "cannot write export file")
	}
	s.record(ctx, session, models.AuditActionExportExcel, path)
	return path, nil
}

// ExportPDF writes the full roster to a tabular PDF and returns the path.
func (s *TransferService) ExportPDF(ctx context.Context, session *models.Session, filename string) (string, error) {
	if session == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "login required to export")
	}
	dataset, err := s.buildDataset(ctx)
	if err != nil {
		return "", err
	}
	payload, err := s.pdf.Render(dataset, "Student Roster")
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to render pdf")
	}
	path, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrFileAccess.Code, "cannot write export file")
	}
	s.record(ctx, session, models.AuditActionExportPDF, path)
	return path, nil
}

func (s *TransferService) buildDataset(ctx context.Context) (export.Dataset, error) {
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list students")
	}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"id":         strconv.FormatInt(st.ID, 10),
			"name":       st.Name,
			"roll":       st.Roll,
			"course":     st.Course,
			"marks":      strconv.Itoa(st.Marks),
			"created_at": st.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}

// parseMarks tolerates decimal-formatted integers such as "72.0".
func parseMarks(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse marks %q: %w", raw, err)
	}
	return int(f), nil
}

func (s *TransferService) record(ctx context.Context, session *models.Session, action, details string) {
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
