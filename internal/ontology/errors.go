package ontology

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream error")
	ErrUnauthorized = errors.New("unauthorized")
)

// KindError carries a kind sentinel and a caller-facing message
type KindError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *KindError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Is matches the kind sentinel
func (e *KindError) Is(target error) bool {
	return target == e.Kind
}

func (e *KindError) Unwrap() error {
	return e.Err
}

func validationf(format string, args ...interface{}) error {
	return &KindError{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &KindError{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// upstream marks a store failure. The first failing sub-query aborts the
// operation, so there is never more than one cause.
func upstream(op string, err error) error {
	return &KindError{Kind: ErrUpstream, Msg: op, Err: err}
}
