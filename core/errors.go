package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// DependencyRef points at a dependent record that blocks a mutation.
type DependencyRef struct {
	File   string
	Reason string
}

// DependencyError is returned when a delete or role change would orphan
// references in other files. It lists every matched dependency.
type DependencyError struct {
	Refs []DependencyRef
}

func NewDependencyError(refs ...DependencyRef) error {
	return &DependencyError{Refs: refs}
}

func (err DependencyError) Error() string {
	reasons := make([]string, 0, len(err.Refs))
	for _, ref := range err.Refs {
		reasons = append(reasons, ref.File+": "+ref.Reason)
	}
	return "mutation blocked by dependent records; " + strings.Join(reasons, "; ")
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
