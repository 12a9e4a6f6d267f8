// Package router builds the HTTP route table.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/school-api/internal/enrollment"
	"github.com/aanand-mishra/school-api/internal/http/handlers/course"
	"github.com/aanand-mishra/school-api/internal/http/handlers/home"
	"github.com/aanand-mishra/school-api/internal/http/handlers/student"
	"github.com/aanand-mishra/school-api/internal/http/middleware"
)

// New returns the application's router.
//
// Route table:
//
//	GET    /health                    → liveness probe
//	GET    /api                       → welcome message
//	GET    /api/students              → list all students
//	POST   /api/student               → create a student
//	GET    /api/student/{id}          → get one student
//	PUT    /api/student/{id}          → update a student
//	DELETE /api/student/{id}          → delete a student
//	GET    /api/courses               → list all courses
//	POST   /api/course                → create a course
//	GET    /api/course/{id}           → get one course
//	PUT    /api/course/{id}           → update a course
//	DELETE /api/course/{id}           → delete a course (unenrolls its students)
//	POST   /api/course/{id}/reconcile → recount enrolled_students
func New(m *enrollment.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer) // inside Logger so recovered panics are logged as 500

	r.Get("/health", home.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", home.Welcome)

		r.Get("/students", student.GetList(m))
		r.Post("/student", student.New(m))
		r.Get("/student/{id}", student.GetByID(m))
		r.Put("/student/{id}", student.Update(m))
		r.Delete("/student/{id}", student.Delete(m))

		r.Get("/courses", course.GetList(m))
		r.Post("/course", course.New(m))
		r.Get("/course/{id}", course.GetByID(m))
		r.Put("/course/{id}", course.Update(m))
		r.Delete("/course/{id}", course.Delete(m))
		r.Post("/course/{id}/reconcile", course.Reconcile(m))
	})

	return r
}
