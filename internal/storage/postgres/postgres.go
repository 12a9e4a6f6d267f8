// Package postgres implements storage.Storage on PostgreSQL using pgx
// directly (no ORM) and squirrel to build the statements.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/school-api/internal/config"
	"github.com/aanand-mishra/school-api/internal/storage"
	"github.com/aanand-mishra/school-api/internal/types"
)

const (
	studentsTable = "students"
	coursesTable  = "courses"
)

var (
	studentColumns = []string{"id", "name", "age", "course_enrolled", "created_at"}
	courseColumns  = []string{"id", "name", "enrolled_students", "max_students", "created_at"}
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	id                TEXT    PRIMARY KEY,
	name              TEXT    NOT NULL,
	enrolled_students INTEGER NOT NULL DEFAULT 0,
	max_students      INTEGER NOT NULL,
	created_at        TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
	id              TEXT    PRIMARY KEY,
	name            TEXT    NOT NULL,
	age             INTEGER NOT NULL,
	course_enrolled TEXT,
	created_at      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_students_course_enrolled ON students (course_enrolled);
`

// Postgres is the PostgreSQL implementation of storage.Storage.
type Postgres struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

var _ storage.Storage = (*Postgres)(nil)

// New connects to cfg.PostgresDSN and creates the tables if needed.
// It retries the initial connection up to 5 times to accommodate a
// database container that is still starting up.
func New(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		slog.Warn("postgres connect failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create tables: %w", err)
	}

	return &Postgres{
		db: pool,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

// exec runs a built statement and returns the number of affected rows.
func (p *Postgres) exec(ctx context.Context, op string, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build: %w", op, err)
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: exec: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

// execOne is exec for statements that must match a row.
func (p *Postgres) execOne(ctx context.Context, op string, b sq.Sqlizer) error {
	n, err := p.exec(ctx, op, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ─── Students ────────────────────────────────────────────────────────────────

func scanStudent(row pgx.Row) (types.Student, error) {
	var s types.Student
	err := row.Scan(&s.ID, &s.Name, &s.Age, &s.CourseEnrolled, &s.CreatedAt)
	return s, err
}

func (p *Postgres) GetStudent(ctx context.Context, id string) (types.Student, error) {
	query, args, err := p.sb.Select(studentColumns...).
		From(studentsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudent: build: %w", err)
	}

	student, err := scanStudent(p.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudent: scan: %w", err)
	}
	return student, nil
}

func (p *Postgres) ListStudents(ctx context.Context) ([]types.Student, error) {
	return p.queryStudents(ctx, "ListStudents",
		p.sb.Select(studentColumns...).
			From(studentsTable).
			OrderBy("created_at", "id"))
}

func (p *Postgres) StudentsByCourse(ctx context.Context, courseID string) ([]types.Student, error) {
	return p.queryStudents(ctx, "StudentsByCourse",
		p.sb.Select(studentColumns...).
			From(studentsTable).
			Where(sq.Eq{"course_enrolled": courseID}).
			OrderBy("created_at", "id"))
}

func (p *Postgres) queryStudents(ctx context.Context, op string, b sq.SelectBuilder) ([]types.Student, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
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

func (p *Postgres) InsertStudent(ctx context.Context, s types.Student) error {
	_, err := p.exec(ctx, "InsertStudent",
		p.sb.Insert(studentsTable).
			Columns(studentColumns...).
			Values(s.ID, s.Name, s.Age, s.CourseEnrolled, s.CreatedAt))
	return err
}

func (p *Postgres) UpdateStudent(ctx context.Context, s types.Student) error {
	return p.execOne(ctx, "UpdateStudent",
		p.sb.Update(studentsTable).
			Set("name", s.Name).
			Set("age", s.Age).
			Set("course_enrolled", s.CourseEnrolled).
			Where(sq.Eq{"id": s.ID}))
}

func (p *Postgres) DeleteStudent(ctx context.Context, id string) error {
	return p.execOne(ctx, "DeleteStudent",
		p.sb.Delete(studentsTable).Where(sq.Eq{"id": id}))
}

// ─── Courses ─────────────────────────────────────────────────────────────────

func scanCourse(row pgx.Row) (types.Course, error) {
	var c types.Course
	err := row.Scan(&c.ID, &c.Name, &c.EnrolledStudents, &c.MaxStudents, &c.CreatedAt)
	return c, err
}

func (p *Postgres) GetCourse(ctx context.Context, id string) (types.Course, error) {
	query, args, err := p.sb.Select(courseColumns...).
		From(coursesTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return types.Course{}, fmt.Errorf("GetCourse: build: %w", err)
	}

	course, err := scanCourse(p.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Course{}, storage.ErrNotFound
		}
		return types.Course{}, fmt.Errorf("GetCourse: scan: %w", err)
	}
	return course, nil
}

func (p *Postgres) ListCourses(ctx context.Context) ([]types.Course, error) {
	query, args, err := p.sb.Select(courseColumns...).
		From(coursesTable).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListCourses: build: %w", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
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

func (p *Postgres) InsertCourse(ctx context.Context, c types.Course) error {
	_, err := p.exec(ctx, "InsertCourse",
		p.sb.Insert(coursesTable).
			Columns(courseColumns...).
			Values(c.ID, c.Name, c.EnrolledStudents, c.MaxStudents, c.CreatedAt))
	return err
}

func (p *Postgres) UpdateCourse(ctx context.Context, c types.Course) error {
	return p.execOne(ctx, "UpdateCourse",
		p.sb.Update(coursesTable).
			Set("name", c.Name).
			Set("max_students", c.MaxStudents).
			Set("enrolled_students", c.EnrolledStudents).
			Where(sq.Eq{"id": c.ID}))
}

func (p *Postgres) DeleteCourse(ctx context.Context, id string) error {
	return p.execOne(ctx, "DeleteCourse",
		p.sb.Delete(coursesTable).Where(sq.Eq{"id": id}))
}

func (p *Postgres) SetEnrolledCount(ctx context.Context, id string, count int) error {
	return p.execOne(ctx, "SetEnrolledCount",
		p.sb.Update(coursesTable).
			Set("enrolled_students", count).
			Where(sq.Eq{"id": id}))
}

// IncrementEnrolled is a single guarded UPDATE; the row lock Postgres takes
// for it serialises concurrent enrollments into the same course.
func (p *Postgres) IncrementEnrolled(ctx context.Context, id string) error {
	n, err := p.exec(ctx, "IncrementEnrolled",
		p.sb.Update(coursesTable).
			Set("enrolled_students", sq.Expr("enrolled_students + 1")).
			Where(sq.Eq{"id": id}).
			Where("enrolled_students < max_students"))
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := p.GetCourse(ctx, id); err != nil {
		return err
	}
	return storage.ErrCourseFull
}

func (p *Postgres) DecrementEnrolled(ctx context.Context, id string) error {
	_, err := p.exec(ctx, "DecrementEnrolled",
		p.sb.Update(coursesTable).
			Set("enrolled_students", sq.Expr("enrolled_students - 1")).
			Where(sq.Eq{"id": id}).
			Where("enrolled_students > 0"))
	return err
}
