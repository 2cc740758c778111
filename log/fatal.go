package log

import (
	"fmt"
)

// Common errors that can happen on application startup.
var (
	ErrMalformedConfig  = newFatalError("ERR_MALFORMED_CONFIG", "config file is malformed: %v")
	ErrBadFlags         = newFatalError("ERR_BAD_FLAGS", "bad CLI flags: %v")
	ErrEnsureDataDir    = newFatalError("ERR_ENSURE_DATA_DIR", "could not open/create data dir %v: %v")
	ErrRetrieveIdentity = newFatalError("ERR_RETRIEVE_IDENTITY", "could not retrieve identity: %v")
)

// FatalError describes an error that terminates an application with an exit code.
type FatalError struct {
	Code string
	Text string
	Args []any
}

func newFatalError(code, text string) func(args ...any) *FatalError {
	return func(args ...any) *FatalError {
		return &FatalError{
			Code: code,
			Text: text,
			Args: args,
		}
	}
}

func (fe *FatalError) Error() string {
	return fmt.Sprintf(fe.Text, fe.Args...)
}

// Unwrap returns the first error argument, if any.
func (fe *FatalError) Unwrap() error {
	for _, arg := range fe.Args {
		if err, ok := arg.(error); ok {
			return err
		}
	}
	return nil
}
