package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"

	"github.com/elseano/mdcat/pkg/errs"
)

var (
	ErrorUsage = errors.New("invalid usage")
	ErrorInput = errors.New("input error")
)

// reportedError was already shown to the user while the run went on.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

const (
	ExitOK           = 0
	ExitInput        = 1
	ExitUsage        = 2
	ExitInternal     = 129
	ExitInterrupted  = 130
	ExitOutputClosed = 141
)

// ExitCode maps the error a run ended with to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrorUsage):
		return ExitUsage
	case errs.IsFatal(err):
		return ExitInternal
	case errors.Is(err, errs.ErrInterrupted):
		return ExitInterrupted
	case errors.Is(err, errs.ErrOutputClosed):
		return ExitOutputClosed
	default:
		return ExitInput
	}
}

// handleError reports err to dest. Closed output and interruptions are expected ways for
// a run to end and print nothing.
func handleError(dest io.Writer, err error, colors bool) error {
	if err == nil {
		return nil
	}
	var reported reportedError
	if errors.As(err, &reported) || errors.Is(err, errs.ErrOutputClosed) || errors.Is(err, errs.ErrInterrupted) {
		return err
	}

	au := aurora.NewAurora(colors)

	if errs.IsFatal(err) {
		fmt.Fprintf(dest, "%s: %s\n", au.Red("Internal error"), err)
		fmt.Fprintf(dest, "%s\n", au.Faint("This is a bug in mdcat, please report it along with the document."))
		return err
	}

	fmt.Fprintf(dest, "%s: %s\n", au.Red("Error"), err)
	return err
}
