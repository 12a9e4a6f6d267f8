// Package request decodes JSON request bodies.
//
// Besides plain decoding, DecodeJSON rejects bodies carrying keys the
// endpoint does not accept, and reports every such key back to the caller
// so the client can see exactly what to remove.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
)

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1 << 20

// ErrEmptyBody is returned when the request has no body at all.
var ErrEmptyBody = errors.New("request body is empty")

// UnexpectedFieldsError lists the top-level keys that are not allowed.
type UnexpectedFieldsError struct {
	Fields []string
}

func (e *UnexpectedFieldsError) Error() string {
	return fmt.Sprintf("unexpected fields: %s", strings.Join(e.Fields, ", "))
}

// DecodeJSON reads the body of r into dst. The body must be a JSON object
// whose keys are all listed in allowed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowed ...string) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return ErrEmptyBody
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("request body must be a JSON object: %w", err)
	}

	if unexpected := UnexpectedFields(fields, allowed); len(unexpected) > 0 {
		return &UnexpectedFieldsError{Fields: unexpected}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// UnexpectedFields returns the keys of fields missing from allowed,
// sorted so responses are stable.
func UnexpectedFields(fields map[string]json.RawMessage, allowed []string) []string {
	var unexpected []string
	for key := range fields {
		if !slices.Contains(allowed, key) {
			unexpected = append(unexpected, key)
		}
	}
	slices.Sort(unexpected)
	return unexpected
}
