// Package enrollment owns every mutation that touches the relationship
// between a student and a course.
//
// A course's enrolled_students counter is denormalised: it must equal the
// number of students whose course_enrolled points at that course. The
// Manager keeps the two in step across create, update and delete of both
// entities, and refuses operations that would overbook a course.
//
// The two delete paths are intentionally different. Deleting a student
// decrements its course's counter. Deleting a course does not touch its
// counter at all; it nulls course_enrolled on every student instead.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/school-api/internal/storage"
	"github.com/aanand-mishra/school-api/internal/types"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrCourseNotFound  = errors.New("course not found")

	// ErrEnrolledCourseNotFound means a student referenced a course that
	// does not exist.
	ErrEnrolledCourseNotFound = errors.New("referenced course not found")

	ErrCourseFull = errors.New("course has reached max_students")

	// ErrCapacityViolation means a course update would leave max_students
	// below enrolled_students.
	ErrCapacityViolation = errors.New("max_students cannot be lower than enrolled_students")
)

// Manager is the only component allowed to move enrolled_students as a
// side effect of student changes.
type Manager struct {
	students storage.StudentStore
	courses  storage.CourseStore

	now   func() time.Time
	newID func() string
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the source of created_at.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces random UUIDs as the source of new ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// New returns a Manager backed by the given stores.
func New(students storage.StudentStore, courses storage.CourseStore, opts ...Option) *Manager {
	m := &Manager{
		students: students,
		courses:  courses,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ─── Students ────────────────────────────────────────────────────────────────

// GetStudent returns ErrStudentNotFound if there is no such student.
func (m *Manager) GetStudent(ctx context.Context, id string) (types.Student, error) {
	student, err := m.students.GetStudent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Student{}, ErrStudentNotFound
	}
	return student, err
}

func (m *Manager) ListStudents(ctx context.Context) ([]types.Student, error) {
	return m.students.ListStudents(ctx)
}

// CreateStudent stores a new student, enrolling it in courseID if given.
//
// The course counter is incremented before the student row is written.
// If that insert fails the counter stays incremented; ReconcileCourse
// repairs it.
func (m *Manager) CreateStudent(ctx context.Context, name string, age int, courseID *string) (types.Student, error) {
	courseID = normalizeCourseID(courseID)

	if courseID != nil {
		if err := m.enroll(ctx, *courseID); err != nil {
			return types.Student{}, err
		}
	}

	student := types.Student{
		ID:             m.newID(),
		Name:           name,
		Age:            age,
		CourseEnrolled: courseID,
		CreatedAt:      types.Timestamp(m.now()),
	}
	if err := m.students.InsertStudent(ctx, student); err != nil {
		if courseID != nil {
			slog.Warn("student insert failed after enrollment; course counter left incremented",
				slog.String("course_id", *courseID),
				slog.String("error", err.Error()))
		}
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	return student, nil
}

// UpdateStudent applies a partial update. Fields absent from upd keep their
// stored value.
//
// When course_enrolled changes, the new course (if any) is checked and
// incremented first, then the previous course (if any) is decremented.
// The student row is written last.
func (m *Manager) UpdateStudent(ctx context.Context, id string, upd types.StudentUpdate) (types.Student, error) {
	current, err := m.GetStudent(ctx, id)
	if err != nil {
		return types.Student{}, err
	}

	updated := current
	if upd.Name != nil {
		updated.Name = *upd.Name
	}
	if upd.Age != nil {
		updated.Age = *upd.Age
	}
	if upd.CourseEnrolled.Set {
		updated.CourseEnrolled = normalizeCourseID(upd.CourseEnrolled.Value)
	}

	oldCourse, newCourse := current.CourseEnrolled, updated.CourseEnrolled
	if !sameCourse(oldCourse, newCourse) {
		if newCourse != nil {
			if err := m.enroll(ctx, *newCourse); err != nil {
				return types.Student{}, err
			}
		}
		if oldCourse != nil {
			if err := m.courses.DecrementEnrolled(ctx, *oldCourse); err != nil {
				return types.Student{}, fmt.Errorf("UpdateStudent: %w", err)
			}
		}
	}

	if err := m.students.UpdateStudent(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Student{}, ErrStudentNotFound
		}
		return types.Student{}, fmt.Errorf("UpdateStudent: %w", err)
	}

	return updated, nil
}

// DeleteStudent removes the student and frees its seat, if it had one.
func (m *Manager) DeleteStudent(ctx context.Context, id string) error {
	student, err := m.GetStudent(ctx, id)
	if err != nil {
		return err
	}

	if student.CourseEnrolled != nil {
		if err := m.courses.DecrementEnrolled(ctx, *student.CourseEnrolled); err != nil {
			return fmt.Errorf("DeleteStudent: %w", err)
		}
	}

	if err := m.students.DeleteStudent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("DeleteStudent: %w", err)
	}
	return nil
}

// enroll takes a seat in courseID.
func (m *Manager) enroll(ctx context.Context, courseID string) error {
	course, err := m.courses.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEnrolledCourseNotFound
		}
		return fmt.Errorf("enroll: %w", err)
	}
	if course.IsFull() {
		return ErrCourseFull
	}

	// The store re-checks capacity inside the UPDATE, so a request that
	// lost a race for the last seat still gets ErrCourseFull here.
	switch err := m.courses.IncrementEnrolled(ctx, courseID); {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrCourseFull):
		return ErrCourseFull
	case errors.Is(err, storage.ErrNotFound):
		return ErrEnrolledCourseNotFound
	default:
		return fmt.Errorf("enroll: %w", err)
	}
}

// ─── Courses ─────────────────────────────────────────────────────────────────

// GetCourse returns ErrCourseNotFound if there is no such course.
func (m *Manager) GetCourse(ctx context.Context, id string) (types.Course, error) {
	course, err := m.courses.GetCourse(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Course{}, ErrCourseNotFound
	}
	return course, err
}

func (m *Manager) ListCourses(ctx context.Context) ([]types.Course, error) {
	return m.courses.ListCourses(ctx)
}

// CreateCourse stores a new course with no students enrolled.
func (m *Manager) CreateCourse(ctx context.Context, name string, maxStudents int) (types.Course, error) {
	course := types.Course{
		ID:               m.newID(),
		Name:             name,
		EnrolledStudents: 0,
		MaxStudents:      maxStudents,
		CreatedAt:        types.Timestamp(m.now()),
	}
	if err := m.courses.InsertCourse(ctx, course); err != nil {
		return types.Course{}, fmt.Errorf("CreateCourse: %w", err)
	}
	return course, nil
}

// UpdateCourse applies a partial update. enrolled_students may be set
// directly here, but never above max_students.
func (m *Manager) UpdateCourse(ctx context.Context, id string, upd types.CourseUpdate) (types.Course, error) {
	course, err := m.GetCourse(ctx, id)
	if err != nil {
		return types.Course{}, err
	}

	if upd.Name != nil {
		course.Name = *upd.Name
	}
	if upd.MaxStudents != nil {
		course.MaxStudents = *upd.MaxStudents
	}
	if upd.EnrolledStudents != nil {
		course.EnrolledStudents = *upd.EnrolledStudents
	}

	if course.MaxStudents < course.EnrolledStudents {
		return types.Course{}, ErrCapacityViolation
	}

	if err := m.courses.UpdateCourse(ctx, course); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Course{}, ErrCourseNotFound
		}
		return types.Course{}, fmt.Errorf("UpdateCourse: %w", err)
	}
	return course, nil
}

// DeleteCourse unenrolls every student of the course, then removes it.
// Students keep their name and age; only course_enrolled is cleared.
func (m *Manager) DeleteCourse(ctx context.Context, id string) error {
	course, err := m.GetCourse(ctx, id)
	if err != nil {
		return err
	}

	if course.EnrolledStudents > 0 {
		students, err := m.students.StudentsByCourse(ctx, id)
		if err != nil {
			return fmt.Errorf("DeleteCourse: %w", err)
		}

		for _, student := range students {
			student.CourseEnrolled = nil
			if err := m.students.UpdateStudent(ctx, student); err != nil {
				return fmt.Errorf("DeleteCourse: unenroll %s: %w", student.ID, err)
			}
		}

		slog.Info("course students unenrolled",
			slog.String("course_id", id),
			slog.Int("students", len(students)))
	}

	if err := m.courses.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("DeleteCourse: %w", err)
	}
	return nil
}

// ReconcileCourse recounts the students referencing the course and writes
// that number to enrolled_students.
func (m *Manager) ReconcileCourse(ctx context.Context, id string) (types.Course, error) {
	course, err := m.GetCourse(ctx, id)
	if err != nil {
		return types.Course{}, err
	}

	students, err := m.students.StudentsByCourse(ctx, id)
	if err != nil {
		return types.Course{}, fmt.Errorf("ReconcileCourse: %w", err)
	}

	if len(students) != course.EnrolledStudents {
		slog.Info("correcting enrolled_students",
			slog.String("course_id", id),
			slog.Int("stored", course.EnrolledStudents),
			slog.Int("actual", len(students)))
	}

	if err := m.courses.SetEnrolledCount(ctx, id, len(students)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Course{}, ErrCourseNotFound
		}
		return types.Course{}, fmt.Errorf("ReconcileCourse: %w", err)
	}

	course.EnrolledStudents = len(students)
	return course, nil
}

// normalizeCourseID treats an empty or blank id as "no course".
func normalizeCourseID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}

func sameCourse(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
