// Package storage defines the contracts any database backend must satisfy
// to work with this application.
//
// Handlers and the enrollment manager only ever see these interfaces, so
// the SQLite and PostgreSQL backends are interchangeable: main.go picks one
// from the config and nothing else changes.
//
// Stores carry no business rules. Capacity checks, cascades and counter
// bookkeeping all live in the enrollment package.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/school-api/internal/types"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrCourseFull is returned by IncrementEnrolled when the course is already
// at max_students.
var ErrCourseFull = errors.New("course has no remaining capacity")

// StudentStore is the persistence contract for students.
type StudentStore interface {
	// GetStudent fetches a single student. Returns ErrNotFound if absent.
	GetStudent(ctx context.Context, id string) (types.Student, error)

	// ListStudents returns every student. Returns an empty slice (not nil)
	// if there are none.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// InsertStudent stores a new student; the ID is chosen by the caller.
	InsertStudent(ctx context.Context, student types.Student) error

	// UpdateStudent overwrites name, age and course_enrolled.
	UpdateStudent(ctx context.Context, student types.Student) error

	DeleteStudent(ctx context.Context, id string) error

	// StudentsByCourse returns every student whose course_enrolled equals
	// courseID.
	StudentsByCourse(ctx context.Context, courseID string) ([]types.Student, error)
}

// CourseStore is the persistence contract for courses.
type CourseStore interface {
	GetCourse(ctx context.Context, id string) (types.Course, error)
	ListCourses(ctx context.Context) ([]types.Course, error)
	InsertCourse(ctx context.Context, course types.Course) error

	// UpdateCourse overwrites name, max_students and enrolled_students.
	UpdateCourse(ctx context.Context, course types.Course) error

	DeleteCourse(ctx context.Context, id string) error

	// SetEnrolledCount writes the counter verbatim.
	SetEnrolledCount(ctx context.Context, id string, count int) error

	// IncrementEnrolled adds one to the counter in a single statement that
	// only matches while enrolled_students < max_students. Returns
	// ErrCourseFull when that guard rejects and ErrNotFound if the course
	// is gone.
	IncrementEnrolled(ctx context.Context, id string) error

	// DecrementEnrolled subtracts one from the counter, never going below
	// zero. A missing course is not an error.
	DecrementEnrolled(ctx context.Context, id string) error
}

// Storage is everything a backend provides.
type Storage interface {
	StudentStore
	CourseStore
	Close() error
}
