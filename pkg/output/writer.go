package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-runewidth"

	"github.com/elseano/mdcat/pkg/errs"
	"github.com/elseano/mdcat/pkg/styles"
	"github.com/elseano/mdcat/pkg/util"
)

const lineNumberSeparator = " │ "

type Options struct {
	// LineNumberWidth enables the line-number overlay when greater than zero.
	LineNumberWidth int

	// Plain drops styles and control runs.
	Plain bool

	// FlushLines flushes after every completed line, for output read interactively.
	FlushLines bool
}

// LineNumberWidth is the counter width for a document with the given number of source
// lines.
func LineNumberWidth(sourceLines int) int {
	width := len(fmt.Sprint(sourceLines))
	if width < 3 {
		width = 3
	}
	return width
}

// Writer serialises runs to the destination. It is safe to call Finish from another
// goroutine while a render is writing; everything after Finish is discarded.
type Writer struct {
	mu   sync.Mutex
	once sync.Once

	out  *bufio.Writer
	opts Options

	line        int
	column      int
	atLineStart bool
	styled      bool // an SGR sequence is active
	abort       string
	link        string // closes the open hyperlink

	err       error
	finished  bool
	finishErr error
}

func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{
		out:         bufio.NewWriter(w),
		opts:        opts,
		line:        1,
		atLineStart: true,
	}
}

// Write emits one run.
func (w *Writer) Write(run Run) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return errs.ErrOutputClosed
	}
	if w.err != nil {
		return w.err
	}

	switch run.Kind {
	case ControlRun:
		if w.opts.Plain {
			return nil
		}
		w.prefix()
		w.put(run.Text)
		if run.Link {
			w.link = run.Abort
		} else {
			w.abort = run.Abort
		}
	default:
		w.writeText(run.Style, run.Text)
	}

	return w.err
}

// WriteAll emits runs in order, stopping at the first error.
func (w *Writer) WriteAll(runs []Run) error {
	for _, run := range runs {
		if err := w.Write(run); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeText(style styles.Style, text string) {
	sgr := ""
	if !w.opts.Plain {
		sgr = style.SGR()
	}

	for {
		segment, rest, newline := strings.Cut(text, "\n")

		if segment != "" {
			w.prefix()
			if sgr != "" {
				w.put(sgr)
				w.styled = true
			}
			w.put(segment)
			if sgr != "" {
				w.put(styles.Reset)
				w.styled = false
			}
			w.column += runewidth.StringWidth(segment)
		}

		if !newline {
			return
		}

		w.prefix()
		w.put("\n")
		w.line++
		w.column = 0
		w.atLineStart = true

		if w.opts.FlushLines && w.err == nil {
			w.check(w.out.Flush())
		}

		text = rest
	}
}

func (w *Writer) prefix() {
	if !w.atLineStart {
		return
	}
	w.atLineStart = false

	if w.opts.LineNumberWidth > 0 {
		number := fmt.Sprintf("%*d%s", w.opts.LineNumberWidth, w.line, lineNumberSeparator)
		w.put(number)
		w.column += runewidth.StringWidth(number)
	}
}

func (w *Writer) put(s string) {
	if w.err != nil {
		return
	}
	_, err := w.out.WriteString(s)
	w.check(err)
}

func (w *Writer) check(err error) {
	if err == nil || w.err != nil {
		return
	}

	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		util.Logger.Debug().Err(err).Msg("Output closed")
		w.err = errs.ErrOutputClosed
		return
	}

	w.err = err
}

// Column is the display column of the cursor, line-number prefix included.
func (w *Writer) Column() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.column
}

// Lines is the number of newlines written so far.
func (w *Writer) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.line - 1
}

// Finish restores a clean terminal state and flushes. An unterminated sequence is aborted
// before an open hyperlink is closed. Calling it again returns the first
// result without writing anything.
func (w *Writer) Finish() error {
	w.once.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if w.err == nil {
			if w.abort != "" {
				w.put(w.abort)
				w.abort = ""
			}
			if w.link != "" {
				w.put(w.link)
				w.link = ""
			}
			if w.styled {
				w.put(styles.Reset)
			}
			if w.err == nil {
				w.check(w.out.Flush())
			}
		}

		w.finished = true
		w.finishErr = w.err
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finishErr
}
