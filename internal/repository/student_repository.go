package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/studentdesk/internal/models"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

// StudentRepository manages persistence for roster records. It is the only
// writer of the students table.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a new student and assigns its id. Roll collisions surface as
// ErrDuplicateRoll.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (name, roll, course, marks, created_at)
        VALUES (:name, :roll, :course, :marks, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDuplicateRoll.Code, appErrors.ErrDuplicateRoll.Message)
		}
		return fmt.Errorf("create student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read student id: %w", err)
	}
	student.ID = id
	return nil
}

// InsertRow re-inserts a complete row verbatim, original id and created_at
// included. Used when reversing a delete.
func (r *StudentRepository) InsertRow(ctx context.Context, student models.Student) error {
	const query = `INSERT INTO students (id, name, roll, course, marks, created_at)
        VALUES (:id, :name, :roll, :course, :marks, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDuplicateRoll.Code, appErrors.ErrDuplicateRoll.Message)
		}
		return fmt.Errorf("reinsert student: %w", err)
	}
	return nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, name, roll, course, marks, created_at FROM students WHERE id = ?`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByRoll checks if a student with the given roll exists, optionally
// excluding an id.
func (r *StudentRepository) ExistsByRoll(ctx context.Context, roll string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE roll = ?"
	args := []interface{}{roll}
	if excludeID != 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check roll: %w", err)
	}
	return true, nil
}

// Update writes all mutable columns of an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET name = :name, roll = :roll, course = :course, marks = :marks WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDuplicateRoll.Code, appErrors.ErrDuplicateRoll.Message)
		}
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student by id.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// DeleteByRoll removes a student by roll. Used when reversing an add.
func (r *StudentRepository) DeleteByRoll(ctx context.Context, roll string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE roll = ?`, roll); err != nil {
		return fmt.Errorf("delete student by roll: %w", err)
	}
	return nil
}

// Search returns students matching the filter plus the total match count.
// Ordering is by name, case-insensitive, ties broken by id for determinism.
func (r *StudentRepository) Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	args := []interface{}{}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base += " WHERE roll LIKE ? OR name LIKE ? OR course LIKE ?"
		args = append(args, like, like, like)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, name, roll, course, marks, created_at %s
        ORDER BY name COLLATE NOCASE ASC, id ASC LIMIT %d OFFSET %d`, base, filter.Limit, filter.Offset)
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search students: %w", err)
	}
	return students, total, nil
}

// ListAll returns the full table in insertion order for exports.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	students := []models.Student{}
	const query = `SELECT id, name, roll, course, marks, created_at FROM students ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CountAll returns the current row count.
func (r *StudentRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountByCourse groups current students by course.
func (r *StudentRepository) CountByCourse(ctx context.Context) ([]models.CourseCount, error) {
	counts := []models.CourseCount{}
	const query = `SELECT course, COUNT(*) AS count FROM students GROUP BY course ORDER BY course`
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count by course: %w", err)
	}
	return counts, nil
}

// Marks returns every student's mark for histogram bucketing.
func (r *StudentRepository) Marks(ctx context.Context) ([]int, error) {
	marks := []int{}
	if err := r.db.SelectContext(ctx, &marks, `SELECT marks FROM students ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
