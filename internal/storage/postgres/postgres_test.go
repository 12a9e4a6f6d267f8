package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/aanand-mishra/school-api/internal/config"
	"github.com/aanand-mishra/school-api/internal/storage"
	"github.com/aanand-mishra/school-api/internal/types"
)

// newTestStore connects to the database named by POSTGRES_TEST_DSN and
// skips the test when it is unset.
func newTestStore(t *testing.T) *Postgres {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	p, err := New(context.Background(), &config.Config{PostgresDSN: dsn})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// insertCourse creates a course with a random id and removes it when the
// test ends, so runs against a shared database do not collide.
func insertCourse(t *testing.T, p *Postgres, max int) string {
	t.Helper()

	id := uuid.New().String()
	err := p.InsertCourse(context.Background(), types.Course{
		ID:          id,
		Name:        "Course " + id,
		MaxStudents: max,
		CreatedAt:   "2024-01-01 10:00:00",
	})
	if err != nil {
		t.Fatalf("InsertCourse failed: %v", err)
	}
	t.Cleanup(func() { p.DeleteCourse(context.Background(), id) })
	return id
}

func TestEnrolledCounter(t *testing.T) {
	p := newTestStore(t)
	ctx := context.Background()
	id := insertCourse(t, p, 1)

	if err := p.IncrementEnrolled(ctx, id); err != nil {
		t.Fatalf("IncrementEnrolled failed: %v", err)
	}
	if err := p.IncrementEnrolled(ctx, id); !errors.Is(err, storage.ErrCourseFull) {
		t.Errorf("expected ErrCourseFull, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := p.DecrementEnrolled(ctx, id); err != nil {
			t.Fatalf("DecrementEnrolled failed: %v", err)
		}
	}

	course, err := p.GetCourse(ctx, id)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if course.EnrolledStudents != 0 {
		t.Errorf("enrolled_students: got %d, want 0", course.EnrolledStudents)
	}

	if err := p.IncrementEnrolled(ctx, uuid.New().String()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing course: expected ErrNotFound, got %v", err)
	}
}

func TestStudents(t *testing.T) {
	p := newTestStore(t)
	ctx := context.Background()
	courseID := insertCourse(t, p, 5)

	student := types.Student{
		ID:             uuid.New().String(),
		Name:           "Ana",
		Age:            10,
		CourseEnrolled: &courseID,
		CreatedAt:      "2024-01-01 10:00:00",
	}
	if err := p.InsertStudent(ctx, student); err != nil {
		t.Fatalf("InsertStudent failed: %v", err)
	}
	t.Cleanup(func() { p.DeleteStudent(context.Background(), student.ID) })

	byCourse, err := p.StudentsByCourse(ctx, courseID)
	if err != nil {
		t.Fatalf("StudentsByCourse failed: %v", err)
	}
	if len(byCourse) != 1 || byCourse[0].ID != student.ID {
		t.Errorf("StudentsByCourse: got %+v", byCourse)
	}

	student.CourseEnrolled = nil
	if err := p.UpdateStudent(ctx, student); err != nil {
		t.Fatalf("UpdateStudent failed: %v", err)
	}

	got, err := p.GetStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetStudent failed: %v", err)
	}
	if got.CourseEnrolled != nil {
		t.Errorf("course_enrolled: got %q, want nil", *got.CourseEnrolled)
	}

	if err := p.DeleteStudent(ctx, student.ID); err != nil {
		t.Fatalf("DeleteStudent failed: %v", err)
	}
	if _, err := p.GetStudent(ctx, student.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
