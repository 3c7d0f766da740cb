package errs

import (
	"errors"
	"fmt"
)

// FatalError reports an internal-consistency fault: the event stream handed to the
// renderer was not balanced. It always aborts the render.
type FatalError struct {
	Reason string
	Depth  int
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("unbalanced document (depth %d): %s", e.Depth, e.Reason)
}

func Fatalf(depth int, format string, args ...interface{}) error {
	return &FatalError{Reason: fmt.Sprintf(format, args...), Depth: depth}
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// ErrOutputClosed is returned once the destination stopped accepting writes, for example
// when the pager exited before the document was fully written.
var ErrOutputClosed = errors.New("output closed")

// ErrInterrupted is returned when the render was cancelled from outside.
var ErrInterrupted = errors.New("interrupted")
