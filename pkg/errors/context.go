package errors

import (
	goerrors "errors"
)

// ContextError annotates an error with the operation that produced it. The
// chain of contexts reads outermost-first, matching the call stack.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return err.Context + ": " + err.Err.Error()
}

// New returns an error with the given message.
func New(message string) error {
	return goerrors.New(message)
}

// WithContext annotates err with context describing the operation that
// failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause unwraps ContextErrors until it reaches the error that started
// the chain. It's useful for type switching on the underlying error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}
