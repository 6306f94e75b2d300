package db

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateStudent = errors.New("student with this roll number already exists")
	ErrDuplicateMentor  = errors.New("mentor with this faculty id already exists")
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports every invalid field of a record.
// Row is the 1-based CSV or sheet row the record came from, 0 when not read from a file.
type ValidationError struct {
	Row    int
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error)
	}
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, strings.Join(msgs, "; "))
	}
	return strings.Join(msgs, "; ")
}

// FieldMap returns field -> message, the shape used in API error bodies.
func (e *ValidationError) FieldMap() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Error
	}
	return out
}
