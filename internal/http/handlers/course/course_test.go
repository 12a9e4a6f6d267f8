package course_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aanand-mishra/school-api/internal/config"
	"github.com/aanand-mishra/school-api/internal/enrollment"
	"github.com/aanand-mishra/school-api/internal/http/router"
	"github.com/aanand-mishra/school-api/internal/messages"
	"github.com/aanand-mishra/school-api/internal/storage/sqlite"
	"github.com/aanand-mishra/school-api/internal/types"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()

	s, err := sqlite.New(&config.Config{StoragePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("sqlite.New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return router.New(enrollment.New(s, s))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type messageBody struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func parse(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %q: %v", rec.Body.String(), err)
	}
}

func create(t *testing.T, h http.Handler, body string) string {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/course", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg messageBody
	parse(t, rec, &msg)
	if msg.Message != messages.CourseCreated {
		t.Errorf("message: got %q, want %q", msg.Message, messages.CourseCreated)
	}
	return msg.ID
}

func get(t *testing.T, h http.Handler, id string) types.Course {
	t.Helper()

	rec := do(t, h, http.MethodGet, "/api/course/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var c types.Course
	parse(t, rec, &c)
	return c
}

func TestNew(t *testing.T) {
	srv := newServer(t)

	// enrolled_students is accepted but a new course always starts empty.
	id := create(t, srv, `{"name":"Math","max_students":30,"enrolled_students":12}`)

	c := get(t, srv, id)
	if c.Name != "Math" || c.MaxStudents != 30 || c.EnrolledStudents != 0 {
		t.Errorf("unexpected course: %+v", c)
	}
	if len(c.CreatedAt) != len(types.TimestampLayout) {
		t.Errorf("created_at %q does not match layout %q", c.CreatedAt, types.TimestampLayout)
	}
}

func TestNew_BadRequests(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing max_students", `{"name":"Math"}`, messages.MissingNameOrMaxStudents},
		{"missing name", `{"max_students":3}`, messages.MissingNameOrMaxStudents},
		{"unexpected field", `{"name":"Math","max_students":3,"room":"x"}`, messages.UnexpectedFields},
		{"negative max", `{"name":"Math","max_students":-1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/course", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if tt.wantErr == "" {
				return
			}
			var msg messageBody
			parse(t, rec, &msg)
			if msg.Error != tt.wantErr {
				t.Errorf("error: got %q, want %q", msg.Error, tt.wantErr)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	srv := newServer(t)
	id := create(t, srv, `{"name":"Math","max_students":2}`)

	for _, name := range []string{"A", "B"} {
		rec := do(t, srv, http.MethodPost, "/api/student", `{"name":"`+name+`","age":9,"course_enrolled":"`+id+`"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create student: expected 201, got %d", rec.Code)
		}
	}

	t.Run("below enrolled", func(t *testing.T) {
		rec := do(t, srv, http.MethodPut, "/api/course/"+id, `{"max_students":1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var msg messageBody
		parse(t, rec, &msg)
		if msg.Message != messages.MaxStudentsLessThanEnrolled {
			t.Errorf("message: got %q", msg.Message)
		}
		if c := get(t, srv, id); c.MaxStudents != 2 {
			t.Errorf("course should be unchanged, got %+v", c)
		}
	})

	t.Run("partial", func(t *testing.T) {
		rec := do(t, srv, http.MethodPut, "/api/course/"+id, `{"name":"Algebra","max_students":5}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var msg messageBody
		parse(t, rec, &msg)
		if msg.Message != messages.CourseUpdated {
			t.Errorf("message: got %q", msg.Message)
		}
		c := get(t, srv, id)
		if c.Name != "Algebra" || c.MaxStudents != 5 || c.EnrolledStudents != 2 {
			t.Errorf("unexpected course: %+v", c)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(t, srv, http.MethodPut, "/api/course/missing", `{"name":"x"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("unexpected field", func(t *testing.T) {
		rec := do(t, srv, http.MethodPut, "/api/course/"+id, `{"id":"other"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDelete(t *testing.T) {
	srv := newServer(t)
	id := create(t, srv, `{"name":"Math","max_students":2}`)

	rec := do(t, srv, http.MethodDelete, "/api/course/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var msg messageBody
	parse(t, rec, &msg)
	if msg.Message != messages.CourseDeleted {
		t.Errorf("message: got %q", msg.Message)
	}

	rec = do(t, srv, http.MethodDelete, "/api/course/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestReconcile(t *testing.T) {
	srv := newServer(t)
	id := create(t, srv, `{"name":"Math","max_students":9}`)

	rec := do(t, srv, http.MethodPost, "/api/student", `{"name":"A","age":9,"course_enrolled":"`+id+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create student: expected 201, got %d", rec.Code)
	}

	// Administrative override leaves the counter wrong on purpose.
	rec = do(t, srv, http.MethodPut, "/api/course/"+id, `{"enrolled_students":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("override: expected 200, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/course/"+id+"/reconcile", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reconcile: expected 200, got %d", rec.Code)
	}
	var c types.Course
	parse(t, rec, &c)
	if c.EnrolledStudents != 1 {
		t.Errorf("enrolled=%d, want 1", c.EnrolledStudents)
	}

	rec = do(t, srv, http.MethodPost, "/api/course/missing/reconcile", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", rec.Code)
	}
}

func TestGetList(t *testing.T) {
	srv := newServer(t)
	create(t, srv, `{"name":"Math","max_students":2}`)
	create(t, srv, `{"name":"Art","max_students":0}`)

	rec := do(t, srv, http.MethodGet, "/api/courses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var courses []types.Course
	parse(t, rec, &courses)
	if len(courses) != 2 {
		t.Errorf("expected 2 courses, got %d", len(courses))
	}
}
