package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/permissions"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("relation already exists")
	ErrRelationNotFound   = errors.New("relation does not exist")
	ErrSelfReference      = errors.New("self reference is not allowed")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrShortLinkExhausted = errors.New("could not allocate a unique short link")
	ErrNotAuthenticated   = permissions.ErrNotAuthenticated
	ErrForbidden          = permissions.ErrForbidden
)

// DetailedError carries a human readable message on top of a sentinel kind.
type DetailedError struct {
	Kind   error
	Detail string
}

func (e *DetailedError) Error() string { return e.Detail }
func (e *DetailedError) Unwrap() error { return e.Kind }

func newError(kind error, detail string) error {
	return &DetailedError{Kind: kind, Detail: detail}
}

// ValidationError maps field names to their problems.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records a problem for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// notFound turns gorm.ErrRecordNotFound into ErrNotFound with a detail.
func notFound(err error, detail string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, detail)
	}
	return err
}
