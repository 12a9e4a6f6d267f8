// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/school-api/internal/messages"
	"github.com/aanand-mishra/school-api/internal/utils/request"
)

// Response is the envelope for unexpected failures (decode errors,
// database errors, validation details):
//
//	{ "status": "error", "error": "field name is invalid" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is the envelope for the fixed, localised outcomes of the API:
//
//	{ "message": "Aluno(a) criado com sucesso.", "id": "…" }
//
// ID is only set on creation; CourseID only when a course is full.
type Message struct {
	Message  string `json:"message"`
	ID       string `json:"id,omitempty"`
	CourseID string `json:"course_id,omitempty"`
}

// ErrorMessage is the envelope for client mistakes in the request body:
//
//	{ "error": "Campos inesperados encontrados.", "unexpected_fields": ["foo"] }
type ErrorMessage struct {
	Error            string   `json:"error"`
	UnexpectedFields []string `json:"unexpected_fields,omitempty"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
// Use this for unexpected errors (DB failures, decode errors, etc.)
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
//	{ "status": "error", "error": "field name is required, field age must be at least 0" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must not be empty", e.Field()))
		case "gte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// HasRequired reports whether any field failed its "required" rule.
func HasRequired(errs validator.ValidationErrors) bool {
	for _, e := range errs {
		if e.ActualTag() == "required" {
			return true
		}
	}
	return false
}

// WriteDecodeError answers a request whose body request.DecodeJSON
// rejected. Every outcome is a 400.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var unexpected *request.UnexpectedFieldsError
	if errors.As(err, &unexpected) {
		WriteJSON(w, http.StatusBadRequest, ErrorMessage{
			Error:            messages.UnexpectedFields,
			UnexpectedFields: unexpected.Fields,
		})
		return
	}
	WriteJSON(w, http.StatusBadRequest, GeneralError(err))
}

// WriteValidationError answers a request that failed struct validation.
// A missing required field gets the endpoint's fixed message; anything
// else gets the per-field details.
func WriteValidationError(w http.ResponseWriter, err error, missing string) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		return
	}
	if HasRequired(errs) {
		WriteJSON(w, http.StatusBadRequest, ErrorMessage{Error: missing})
		return
	}
	WriteJSON(w, http.StatusBadRequest, ValidationError(errs))
}
