package errors

import (
	"fmt"
)

// FriendlyError is an error whose message is meant to be shown to users
// verbatim, without the context chain.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	message string
}

func (err friendlyError) Error() string {
	return err.message
}

func (err friendlyError) FriendlyMessage() string {
	return err.message
}

// NewFriendlyError creates an error that is printed to the user exactly as
// formatted.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{message: fmt.Sprintf(format, args...)}
}

// GetPrintableMessage returns the message that should be shown to the user
// for err. If any error in the context chain is friendly, its message wins.
func GetPrintableMessage(err error) string {
	for current := err; current != nil; {
		if friendly, ok := current.(FriendlyError); ok {
			return friendly.FriendlyMessage()
		}
		ctxErr, ok := current.(ContextError)
		if !ok {
			break
		}
		current = ctxErr.Err
	}
	return err.Error()
}
