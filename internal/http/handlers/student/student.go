// Package student contains all HTTP handlers related to the Student resource.
//
// Each exported function is a factory: it receives its dependencies once,
// at route registration, and returns the http.HandlerFunc that serves
// every request.
//
//	r.Post("/api/student", student.New(manager))
//
// Handlers only translate HTTP to and from the enrollment manager. All the
// course counter bookkeeping happens there.
package student

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/school-api/internal/enrollment"
	"github.com/aanand-mishra/school-api/internal/messages"
	"github.com/aanand-mishra/school-api/internal/types"
	"github.com/aanand-mishra/school-api/internal/utils/request"
	"github.com/aanand-mishra/school-api/internal/utils/response"
)

// allowedFields are the only keys accepted in student bodies.
var allowedFields = []string{"name", "age", "course_enrolled"}

// New handles POST /api/student
//
// Request body (JSON):
//
//	{ "name": "Ana", "age": 10, "course_enrolled": "<course id>" }
//
// Success response (201 Created):
//
//	{ "id": "<uuid>", "message": "Aluno(a) criado com sucesso." }
//
// Error responses:
//
//	400 Bad Request — unexpected fields, missing name/age, course full
//	404 Not Found   — course_enrolled does not exist
func New(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudentRequest
		if err := request.DecodeJSON(w, r, &req, allowedFields...); err != nil {
			response.WriteDecodeError(w, err)
			return
		}
		if err := request.Validate(req); err != nil {
			response.WriteValidationError(w, err, messages.MissingNameOrAge)
			return
		}

		student, err := m.CreateStudent(r.Context(), *req.Name, *req.Age, req.CourseEnrolled)
		if err != nil {
			writeError(w, err, req.CourseEnrolled)
			return
		}

		slog.Info("student created", slog.String("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, response.Message{
			ID:      student.ID,
			Message: messages.StudentCreated,
		})
	}
}

// GetByID handles GET /api/student/{id}
func GetByID(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := m.GetStudent(r.Context(), id)
		if err != nil {
			writeError(w, err, nil)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students
//
// Returns an empty array [] (not null) when there are no students.
func GetList(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := m.ListStudents(r.Context())
		if err != nil {
			writeError(w, err, nil)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// Update handles PUT /api/student/{id}
//
// Any subset of name, age and course_enrolled may be sent; the rest keep
// their current value. "course_enrolled": null unenrolls the student.
func Update(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("updating a student", slog.String("id", id))

		// A missing student is reported before anything about the body.
		if _, err := m.GetStudent(r.Context(), id); err != nil {
			writeError(w, err, nil)
			return
		}

		var upd types.StudentUpdate
		if err := request.DecodeJSON(w, r, &upd, allowedFields...); err != nil {
			response.WriteDecodeError(w, err)
			return
		}
		if err := request.Validate(upd); err != nil {
			response.WriteValidationError(w, err, messages.MissingNameOrAge)
			return
		}

		if _, err := m.UpdateStudent(r.Context(), id, upd); err != nil {
			writeError(w, err, upd.CourseEnrolled.Value)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: messages.StudentUpdated})
	}
}

// Delete handles DELETE /api/student/{id}
func Delete(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := m.DeleteStudent(r.Context(), id); err != nil {
			writeError(w, err, nil)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: messages.StudentDeleted})
	}
}

// writeError maps manager errors to a status and message. courseID is the
// course the request tried to enroll in, echoed back when it is full.
func writeError(w http.ResponseWriter, err error, courseID *string) {
	switch {
	case errors.Is(err, enrollment.ErrStudentNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Message{Message: messages.StudentNotFound})
	case errors.Is(err, enrollment.ErrEnrolledCourseNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Message{Message: messages.CourseNotFound})
	case errors.Is(err, enrollment.ErrCourseFull):
		msg := response.Message{Message: messages.MaxStudentsReached}
		if courseID != nil {
			msg.CourseID = *courseID
		}
		response.WriteJSON(w, http.StatusBadRequest, msg)
	default:
		slog.Error("student request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}
