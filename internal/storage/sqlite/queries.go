package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// The .sql files are compiled into the binary, so the server does not
// depend on its working directory to find them.
//
//go:embed queries/*.sql
var queryFiles embed.FS

// schemaQueries run once, in this order, when the database is opened.
var schemaQueries = []string{
	"CREATE_COURSES_TABLE",
	"CREATE_STUDENTS_TABLE",
	"CREATE_STUDENTS_COURSE_INDEX",
}

// statements is the complete, fixed set of prepared statements the store
// runs. Each field is bound to one named block of the embedded .sql files.
type statements struct {
	listStudents     *sql.Stmt
	getStudent       *sql.Stmt
	studentsByCourse *sql.Stmt
	insertStudent    *sql.Stmt
	updateStudent    *sql.Stmt
	deleteStudent    *sql.Stmt

	listCourses       *sql.Stmt
	getCourse         *sql.Stmt
	insertCourse      *sql.Stmt
	updateCourse      *sql.Stmt
	setEnrolled       *sql.Stmt
	incrementEnrolled *sql.Stmt
	decrementEnrolled *sql.Stmt
	deleteCourse      *sql.Stmt
}

func (st *statements) bindings() map[string]**sql.Stmt {
	return map[string]**sql.Stmt{
		"GET_ALL_STUDENTS":         &st.listStudents,
		"GET_STUDENT":              &st.getStudent,
		"GET_STUDENT_BY_COURSE_ID": &st.studentsByCourse,
		"INSERT_STUDENT":           &st.insertStudent,
		"UPDATE_STUDENT":           &st.updateStudent,
		"DELETE_STUDENT":           &st.deleteStudent,

		"GET_ALL_COURSES":             &st.listCourses,
		"GET_COURSE":                  &st.getCourse,
		"INSERT_COURSE":               &st.insertCourse,
		"UPDATE_COURSE":               &st.updateCourse,
		"UPDATE_ENROLLED_STUDENTS":    &st.setEnrolled,
		"INCREMENT_ENROLLED_STUDENTS": &st.incrementEnrolled,
		"DECREMENT_ENROLLED_STUDENTS": &st.decrementEnrolled,
		"DELETE_COURSE":               &st.deleteCourse,
	}
}

// prepareStatements prepares every bound query. A name missing from
// queries is an error; the server must not start with a partial set.
func prepareStatements(db *sql.DB, queries map[string]string) (*statements, error) {
	st := &statements{}
	for name, dst := range st.bindings() {
		query, ok := queries[name]
		if !ok {
			st.close()
			return nil, fmt.Errorf("prepareStatements: query %s not found", name)
		}

		stmt, err := db.Prepare(query)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("prepareStatements: prepare %s: %w", name, err)
		}
		*dst = stmt
	}
	return st, nil
}

func (st *statements) close() error {
	var errs []error
	for _, stmt := range st.bindings() {
		if *stmt != nil {
			errs = append(errs, (*stmt).Close())
		}
	}
	return errors.Join(errs...)
}

// loadQueries parses every embedded .sql file into a single name → SQL
// lookup. Names must be unique across files.
func loadQueries() (map[string]string, error) {
	files, err := fs.Glob(queryFiles, "queries/*.sql")
	if err != nil {
		return nil, fmt.Errorf("loadQueries: glob: %w", err)
	}

	all := make(map[string]string)
	for _, file := range files {
		src, err := queryFiles.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("loadQueries: read %s: %w", file, err)
		}

		queries, err := parseQueries(string(src))
		if err != nil {
			return nil, fmt.Errorf("loadQueries: %s: %w", file, err)
		}

		for name, query := range queries {
			if _, dup := all[name]; dup {
				return nil, fmt.Errorf("loadQueries: query %s defined in more than one file", name)
			}
			all[name] = query
		}
	}
	return all, nil
}

// parseQueries splits a .sql file into named blocks. A block starts with a
// line of the form "-- QUERY_NAME" and runs until the next such line.
// Other "--" comments stay part of the block they sit in.
func parseQueries(src string) (map[string]string, error) {
	queries := make(map[string]string)

	var (
		name string
		body strings.Builder
	)

	flush := func() error {
		query := strings.TrimSpace(body.String())
		body.Reset()

		if name == "" {
			if query != "" {
				return errors.New("sql found before the first named block")
			}
			return nil
		}
		if query == "" {
			return fmt.Errorf("query %s is empty", name)
		}
		if _, dup := queries[name]; dup {
			return fmt.Errorf("query %s defined twice", name)
		}
		queries[name] = query
		return nil
	}

	for _, line := range strings.Split(src, "\n") {
		if next, ok := queryName(line); ok {
			if err := flush(); err != nil {
				return nil, err
			}
			name = next
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return queries, nil
}

// queryName reports whether line is a block header and returns its name.
func queryName(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "--")
	if !ok {
		return "", false
	}

	name := strings.TrimSpace(rest)
	if name == "" {
		return "", false
	}
	for _, r := range name {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '_' {
			return "", false
		}
	}
	return name, true
}
