package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/studentdesk/internal/models"
	"github.com/noah-isme/studentdesk/pkg/export"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

type reportRepository interface {
	CountByCourse(ctx context.Context) ([]models.CourseCount, error)
	Marks(ctx context.Context) ([]int, error)
}

// ReportSnapshot bundles the aggregates handed to a rendering collaborator.
type ReportSnapshot struct {
	ByCourse []models.CourseCount
	Marks    []int
}

// ReportService computes read-side aggregates. Nothing is cached: every call
// re-queries current state.
type ReportService struct {
	repo    reportRepository
	audit   auditRecorder
	pdf     pdfRenderer
	storage fileStorage
	logger  *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportRepository, audit auditRecorder, pdf pdfRenderer, storage fileStorage, logger *zap.Logger) *ReportService {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, audit: audit, pdf: pdf, storage: storage, logger: logger}
}

// ByCourse groups all current students by course and counts them.
func (s *ReportService) ByCourse(ctx context.Context) ([]models.CourseCount, error) {
	counts, err := s.repo.CountByCourse(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to aggregate courses")
	}
	return counts, nil
}

// Marks returns every student's mark for histogram bucketing by the
// rendering collaborator.
func (s *ReportService) Marks(ctx context.Context) ([]int, error) {
	marks, err := s.repo.Marks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list marks")
	}
	return marks, nil
}

// Refresh recomputes both aggregates and notes the refresh in the audit
// trail.
func (s *ReportService) Refresh(ctx context.Context, session *models.Session) (*ReportSnapshot, error) {
	counts, err := s.ByCourse(ctx)
	if err != nil {
		return nil, err
	}
	marks, err := s.Marks(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil {
		err := s.audit.Create(ctx, &models.AuditEntry{
			User:   session.User,
			Role:   session.Role,
			Action: models.AuditActionRefreshCharts,
		})
		if err != nil {
			s.logger.Warn("failed to record audit entry", zap.Error(err))
		}
	}
	return &ReportSnapshot{ByCourse: counts, Marks: marks}, nil
}

// RenderPDF writes the students-per-course table to a PDF file and returns
// the path written.
func (s *ReportService) RenderPDF(ctx context.Context, filename string) (string, error) {
	counts, err := s.ByCourse(ctx)
	if err != nil {
		return "", err
	}
	rows := make([]map[string]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, map[string]string{
			"course":   c.Course,
			"students": strconv.Itoa(c.Count),
		})
	}
	payload, err := s.pdf.Render(export.Dataset{
		Headers: []string{"course", "students"},
		Rows:    rows,
	}, "Students per Course")
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to render report")
	}
	path, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrFileAccess.Code, "cannot write report file")
	}
	return path, nil
}
