// Package apperr defines sentinel errors shared by the service and API layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid")
)

type notFound struct{ entity string }

func (e notFound) Error() string { return e.entity + " not found" }
func (e notFound) Unwrap() error { return ErrNotFound }

// NotFound returns an ErrNotFound naming the missing entity, e.g.
// "Project not found".
func NotFound(entity string) error {
	return notFound{entity: entity}
}
