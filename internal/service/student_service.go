package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studentdesk/internal/models"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	InsertRow(ctx context.Context, student models.Student) error
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByRoll(ctx context.Context, roll string, excludeID int64) (bool, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
	DeleteByRoll(ctx context.Context, roll string) error
	Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	CountAll(ctx context.Context) (int, error)
}

type auditRecorder interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}

// StudentService handles roster use-cases: validated CRUD, paged search and
// the undo stack. Every mutating call takes the session performing it.
type StudentService struct {
	repo      studentRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	undo      *UndoLog
	redo      *UndoLog
	pageSize  int
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, pageSize int) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &StudentService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger,
		undo:      NewUndoLog(),
		redo:      NewUndoLog(),
		pageSize:  pageSize,
	}
}

// Add registers a new student. Any authenticated session, Guest included,
// may add.
func (s *StudentService) Add(ctx context.Context, session *models.Session, in StudentInput) (*models.Student, error) {
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "login required to add records")
	}
	if fields := ValidateStudent(s.validator, in); fields != nil {
		return nil, appErrors.Wrap(fields, appErrors.ErrValidation.Code, appErrors.ErrValidation.Message)
	}
	exists, err := s.repo.ExistsByRoll(ctx, in.Roll, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to check roll")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateRoll, "")
	}

	student := &models.Student{
		Name:   in.Name,
		Roll:   in.Roll,
		Course: in.Course,
		Marks:  in.Marks,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateRoll) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to create student")
	}

	s.record(ctx, session, models.AuditActionAdd, fmt.Sprintf("%s|%s", student.Roll, student.Name))
	s.undo.Push(models.UndoEntry{Kind: models.UndoRemove, Roll: student.Roll})
	s.redo.Clear()
	return student, nil
}

// Get returns one student by id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load student")
	}
	return student, nil
}

// Update rewrites an existing student's mutable fields.
func (s *StudentService) Update(ctx context.Context, session *models.Session, id int64, in StudentInput) (*models.Student, error) {
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "login required to update records")
	}
	if fields := ValidateStudent(s.validator, in); fields != nil {
		return nil, appErrors.Wrap(fields, appErrors.ErrValidation.Code, appErrors.ErrValidation.Message)
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByRoll(ctx, in.Roll, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to check roll")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateRoll, "roll conflicts with another record")
	}

	updated := *old
	updated.Name = in.Name
	updated.Roll = in.Roll
	updated.Course = in.Course
	updated.Marks = in.Marks
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateRoll) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to update student")
	}

	s.record(ctx, session, models.AuditActionUpdate,
		fmt.Sprintf("id=%d|from=%s/%s|to=%s/%s", id, old.Roll, old.Name, updated.Roll, updated.Name))
	s.undo.Push(models.UndoEntry{Kind: models.UndoRestore, Row: *old})
	s.redo.Clear()
	return &updated, nil
}

// Delete removes a student and returns the removed row. Guests may not
// delete.
func (s *StudentService) Delete(ctx context.Context, session *models.Session, id int64) (*models.Student, error) {
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "login required to delete records")
	}
	if !session.CanDelete() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "guests cannot delete records")
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to delete student")
	}

	s.record(ctx, session, models.AuditActionDelete, fmt.Sprintf("id=%d|%s|%s", old.ID, old.Roll, old.Name))
	s.undo.Push(models.UndoEntry{Kind: models.UndoReinsert, Row: *old})
	s.redo.Clear()
	return old, nil
}

// Page returns one page of the filtered, name-ordered roster. An out-of-range
// index yields empty rows with correct totals rather than an error; clamping
// is the caller's responsibility.
func (s *StudentService) Page(ctx context.Context, filterText string, pageIndex, pageSize int) (*models.PageResult, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	rows, total, err := s.repo.Search(ctx, models.StudentFilter{
		Search: filterText,
		Limit:  pageSize,
		Offset: pageIndex * pageSize,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to search students")
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return &models.PageResult{
		Rows:       rows,
		PageIndex:  pageIndex,
		TotalPages: totalPages,
		TotalRows:  total,
	}, nil
}

// CountAll returns the current roster size.
func (s *StudentService) CountAll(ctx context.Context) (int, error) {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to count students")
	}
	return total, nil
}

// Undo pops the most recent reversal entry and applies its inverse write,
// then pushes a redo marker. It returns the audit action performed.
func (s *StudentService) Undo(ctx context.Context, session *models.Session) (string, error) {
	if session == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "login required to undo")
	}
	entry, ok := s.undo.Pop()
	if !ok {
		return "", appErrors.Clone(appErrors.ErrEmptyUndo, "")
	}

	// A failed reversal goes back on the stack so the slot of history
	// survives for a retry.
	var action string
	switch entry.Kind {
	case models.UndoRemove:
		if err := s.repo.DeleteByRoll(ctx, entry.Roll); err != nil {
			s.undo.Push(entry)
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to undo add")
		}
		action = models.AuditActionUndoDelete
		s.record(ctx, session, action, entry.Roll)
	case models.UndoReinsert:
		if err := s.repo.InsertRow(ctx, entry.Row); err != nil {
			s.undo.Push(entry)
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to undo delete")
		}
		action = models.AuditActionUndoInsert
		s.record(ctx, session, action, fmt.Sprintf("%d", entry.Row.ID))
	case models.UndoRestore:
		row := entry.Row
		if err := s.repo.Update(ctx, &row); err != nil {
			s.undo.Push(entry)
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to undo update")
		}
		action = models.AuditActionUndoUpdate
		s.record(ctx, session, action, fmt.Sprintf("%d", entry.Row.ID))
	default:
		return "", appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown undo kind %q", entry.Kind))
	}

	s.redo.Push(entry)
	return action, nil
}

// Redo pops a redo marker and reports which action it recorded. It performs
// no write: reapplying the undone change was never implemented in the system
// this replaces, and that gap is kept visible here rather than papered over.
func (s *StudentService) Redo(ctx context.Context, session *models.Session) (models.UndoKind, error) {
	if session == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "login required to redo")
	}
	entry, ok := s.redo.Pop()
	if !ok {
		return "", appErrors.Clone(appErrors.ErrEmptyRedo, "")
	}
	return entry.Kind, nil
}

// UndoDepth exposes the current undo stack depth for the shell status line.
func (s *StudentService) UndoDepth() int {
	return s.undo.Len()
}

func (s *StudentService) record(ctx context.Context, session *models.Session, action, details string) {
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
