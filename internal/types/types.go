// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and the enrollment manager can all import types
// without depending on each other.
package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the format of every created_at value the API stores
// and returns. Second precision, no zone suffix.
const TimestampLayout = "2006-01-02 15:04:05"

// Timezone is the fixed UTC-3 offset created_at values are rendered in.
var Timezone = time.FixedZone("UTC-3", -3*60*60)

// Timestamp renders t in the API's created_at format.
func Timestamp(t time.Time) string {
	return t.In(Timezone).Format(TimestampLayout)
}

// Student represents a student record in our system.
//
// CourseEnrolled is a pointer so it can be JSON null: a student does not
// have to be enrolled in any course.
type Student struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Age            int     `json:"age"`
	CourseEnrolled *string `json:"course_enrolled"`
	CreatedAt      string  `json:"created_at"`
}

// Course represents a course students can enroll in.
//
// EnrolledStudents is a denormalised counter maintained by the enrollment
// manager; it mirrors how many students reference this course.
type Course struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	EnrolledStudents int    `json:"enrolled_students"`
	MaxStudents      int    `json:"max_students"`
	CreatedAt        string `json:"created_at"`
}

// IsFull reports whether the course has no seat left.
func (c Course) IsFull() bool {
	return c.EnrolledStudents >= c.MaxStudents
}

// ─────────────────────────────────────────────────────────────────────────────
// Request payloads
//
// Struct tags serve two purposes:
//
//  1. json:"..."     — the key the field is read from.
//  2. validate:"..." — rules checked by the go-playground/validator package.
//
// Pointer fields let us tell "absent" apart from a zero value: an age of 0
// is a valid age, a missing age is not.
// ─────────────────────────────────────────────────────────────────────────────

// CreateStudentRequest is the body of POST /api/student.
type CreateStudentRequest struct {
	Name           *string `json:"name"            validate:"required,min=1"`
	Age            *int    `json:"age"             validate:"required,gte=0"`
	CourseEnrolled *string `json:"course_enrolled"`
}

// StudentUpdate is the body of PUT /api/student/{id}. Every field is
// optional; absent fields keep their stored value.
type StudentUpdate struct {
	Name           *string        `json:"name" validate:"omitnil,min=1"`
	Age            *int           `json:"age"  validate:"omitnil,gte=0"`
	CourseEnrolled NullableString `json:"course_enrolled"`
}

// CreateCourseRequest is the body of POST /api/course.
type CreateCourseRequest struct {
	Name        *string `json:"name"         validate:"required,min=1"`
	MaxStudents *int    `json:"max_students" validate:"required,gte=0"`
}

// CourseUpdate is the body of PUT /api/course/{id}.
//
// EnrolledStudents may be overridden here directly; this is the
// administrative correction path for the counter.
type CourseUpdate struct {
	Name             *string `json:"name"              validate:"omitnil,min=1"`
	MaxStudents      *int    `json:"max_students"      validate:"omitnil,gte=0"`
	EnrolledStudents *int    `json:"enrolled_students" validate:"omitnil,gte=0"`
}

// NullableString is a JSON string field with three states: absent,
// explicitly null, or a value. A plain *string collapses the first two.
type NullableString struct {
	Set   bool
	Value *string
}

// Some returns a NullableString holding s.
func Some(s string) NullableString {
	return NullableString{Set: true, Value: &s}
}

// Null returns a NullableString that was explicitly set to null.
func Null() NullableString {
	return NullableString{Set: true}
}

// UnmarshalJSON is only called when the key is present, which is what
// flips Set. encoding/json calls it for a literal null as well.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}
