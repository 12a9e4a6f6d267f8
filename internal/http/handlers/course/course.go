// Package course contains all HTTP handlers related to the Course resource.
package course

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

// enrolled_students is accepted on create for compatibility but ignored;
// a new course always starts empty.
var allowedFields = []string{"name", "max_students", "enrolled_students"}

// New handles POST /api/course
//
// Request body (JSON):
//
//	{ "name": "Math", "max_students": 30 }
//
// Success response (201 Created):
//
//	{ "id": "<uuid>", "message": "Curso criado com sucesso." }
func New(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a course")

		var req types.CreateCourseRequest
		if err := request.DecodeJSON(w, r, &req, allowedFields...); err != nil {
			response.WriteDecodeError(w, err)
			return
		}
		if err := request.Validate(req); err != nil {
			response.WriteValidationError(w, err, messages.MissingNameOrMaxStudents)
			return
		}

		course, err := m.CreateCourse(r.Context(), *req.Name, *req.MaxStudents)
		if err != nil {
			writeError(w, err)
			return
		}

		slog.Info("course created", slog.String("id", course.ID))
		response.WriteJSON(w, http.StatusCreated, response.Message{
			ID:      course.ID,
			Message: messages.CourseCreated,
		})
	}
}

// GetByID handles GET /api/course/{id}
func GetByID(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("getting a course", slog.String("id", id))

		course, err := m.GetCourse(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, course)
	}
}

// GetList handles GET /api/courses
func GetList(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all courses")

		courses, err := m.ListCourses(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, courses)
	}
}

// Update handles PUT /api/course/{id}
//
// Any subset of name, max_students and enrolled_students may be sent.
// Responds 400 if max_students would end up below enrolled_students.
func Update(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("updating a course", slog.String("id", id))

		if _, err := m.GetCourse(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		var upd types.CourseUpdate
		if err := request.DecodeJSON(w, r, &upd, allowedFields...); err != nil {
			response.WriteDecodeError(w, err)
			return
		}
		if err := request.Validate(upd); err != nil {
			response.WriteValidationError(w, err, messages.MissingNameOrMaxStudents)
			return
		}

		if _, err := m.UpdateCourse(r.Context(), id, upd); err != nil {
			writeError(w, err)
			return
		}

		slog.Info("course updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: messages.CourseUpdated})
	}
}

// Delete handles DELETE /api/course/{id}
//
// Students enrolled in the course are kept, with course_enrolled cleared.
func Delete(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("deleting a course", slog.String("id", id))

		if err := m.DeleteCourse(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		slog.Info("course deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: messages.CourseDeleted})
	}
}

// Reconcile handles POST /api/course/{id}/reconcile
//
// Recounts the students enrolled in the course and stores the result in
// enrolled_students. Responds with the corrected course.
func Reconcile(m *enrollment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("reconciling a course", slog.String("id", id))

		course, err := m.ReconcileCourse(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, course)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, enrollment.ErrCourseNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Message{Message: messages.CourseNotFound})
	case errors.Is(err, enrollment.ErrCapacityViolation):
		response.WriteJSON(w, http.StatusBadRequest, response.Message{Message: messages.MaxStudentsLessThanEnrolled})
	default:
		slog.Error("course request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}
