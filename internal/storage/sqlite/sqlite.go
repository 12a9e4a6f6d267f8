// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk. There is no network,
// no separate server process, and no installation beyond the driver.
//
// Every query the store runs lives in queries/*.sql as a named block. They
// are parsed and prepared once in New, so a typo in a query name or in the
// SQL itself stops the server at boot instead of failing a request later.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/school-api/internal/config"
	"github.com/aanand-mishra/school-api/internal/storage"
	"github.com/aanand-mishra/school-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db    *sql.DB
	stmts *statements
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at cfg.StoragePath, creates the tables if
// they do not already exist, and prepares every query.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time. A single connection serialises
	// writes inside the process instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	queries, err := loadQueries()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	for _, name := range schemaQueries {
		if _, err := db.Exec(queries[name]); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite.New: %s: %w", name, err)
		}
	}

	stmts, err := prepareStatements(db, queries)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &SQLite{Db: db, stmts: stmts}, nil
}

// Close releases the prepared statements and the database handle.
func (s *SQLite) Close() error {
	return errors.Join(s.stmts.close(), s.Db.Close())
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		course  sql.NullString
	)
	if err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Age,
		&course,
		&student.CreatedAt,
	); err != nil {
		return types.Student{}, err
	}
	if course.Valid {
		student.CourseEnrolled = &course.String
	}
	return student, nil
}

func (s *SQLite) GetStudent(ctx context.Context, id string) (types.Student, error) {
	student, err := scanStudent(s.stmts.getStudent.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudent: scan: %w", err)
	}
	return student, nil
}

func (s *SQLite) ListStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.stmts.listStudents.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	return collectStudents(rows, "ListStudents")
}

func (s *SQLite) StudentsByCourse(ctx context.Context, courseID string) ([]types.Student, error) {
	rows, err := s.stmts.studentsByCourse.QueryContext(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("StudentsByCourse: query: %w", err)
	}
	return collectStudents(rows, "StudentsByCourse")
}

// collectStudents drains rows into a non-nil slice and closes them.
func collectStudents(rows *sql.Rows, op string) ([]types.Student, error) {
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}
	return students, nil
}

func (s *SQLite) InsertStudent(ctx context.Context, student types.Student) error {
	_, err := s.stmts.insertStudent.ExecContext(ctx,
		student.ID,
		student.Name,
		student.Age,
		student.CourseEnrolled, // nil pointer is stored as NULL
		student.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertStudent: exec: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateStudent(ctx context.Context, student types.Student) error {
	result, err := s.stmts.updateStudent.ExecContext(ctx,
		student.Name, student.Age, student.CourseEnrolled, student.ID)
	if err != nil {
		return fmt.Errorf("UpdateStudent: exec: %w", err)
	}
	return requireRow(result, "UpdateStudent")
}

func (s *SQLite) DeleteStudent(ctx context.Context, id string) error {
	result, err := s.stmts.deleteStudent.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("DeleteStudent: exec: %w", err)
	}
	return requireRow(result, "DeleteStudent")
}

// ─────────────────────────────────────────────────────────────────────────────
// Courses
// ─────────────────────────────────────────────────────────────────────────────

func scanCourse(row scanner) (types.Course, error) {
	var course types.Course
	err := row.Scan(
		&course.ID,
		&course.Name,
		&course.EnrolledStudents,
		&course.MaxStudents,
		&course.CreatedAt,
	)
	return course, err
}

func (s *SQLite) GetCourse(ctx context.Context, id string) (types.Course, error) {
	course, err := scanCourse(s.stmts.getCourse.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Course{}, storage.ErrNotFound
		}
		return types.Course{}, fmt.Errorf("GetCourse: scan: %w", err)
	}
	return course, nil
}

func (s *SQLite) ListCourses(ctx context.Context) ([]types.Course, error) {
	rows, err := s.stmts.listCourses.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCourses: query: %w", err)
	}
	defer rows.Close()

	courses := make([]types.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("ListCourses: scan row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCourses: rows iteration: %w", err)
	}
	return courses, nil
}

func (s *SQLite) InsertCourse(ctx context.Context, course types.Course) error {
	_, err := s.stmts.insertCourse.ExecContext(ctx,
		course.ID,
		course.Name,
		course.EnrolledStudents,
		course.MaxStudents,
		course.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertCourse: exec: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateCourse(ctx context.Context, course types.Course) error {
	result, err := s.stmts.updateCourse.ExecContext(ctx,
		course.Name, course.MaxStudents, course.EnrolledStudents, course.ID)
	if err != nil {
		return fmt.Errorf("UpdateCourse: exec: %w", err)
	}
	return requireRow(result, "UpdateCourse")
}

func (s *SQLite) DeleteCourse(ctx context.Context, id string) error {
	result, err := s.stmts.deleteCourse.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("DeleteCourse: exec: %w", err)
	}
	return requireRow(result, "DeleteCourse")
}

func (s *SQLite) SetEnrolledCount(ctx context.Context, id string, count int) error {
	result, err := s.stmts.setEnrolled.ExecContext(ctx, count, id)
	if err != nil {
		return fmt.Errorf("SetEnrolledCount: exec: %w", err)
	}
	return requireRow(result, "SetEnrolledCount")
}

// IncrementEnrolled relies on the WHERE clause for the capacity check, so
// two requests racing for the last seat cannot both succeed.
func (s *SQLite) IncrementEnrolled(ctx context.Context, id string) error {
	result, err := s.stmts.incrementEnrolled.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("IncrementEnrolled: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("IncrementEnrolled: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the course is gone or it is full.
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}
	return storage.ErrCourseFull
}

func (s *SQLite) DecrementEnrolled(ctx context.Context, id string) error {
	if _, err := s.stmts.decrementEnrolled.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("DecrementEnrolled: exec: %w", err)
	}
	return nil
}

// requireRow turns "statement matched nothing" into storage.ErrNotFound.
func requireRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
