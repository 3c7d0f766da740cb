package terminal

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// CellSize is the pixel size of one terminal cell.
type CellSize struct {
	Width  int
	Height int
}

// DefaultCellSize is assumed for terminals which don't report their pixel size.
var DefaultCellSize = CellSize{Width: 8, Height: 16}

// Aspect is the cell height divided by its width.
func (c CellSize) Aspect() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return DefaultCellSize.Aspect()
	}
	return float64(c.Height) / float64(c.Width)
}

// IsTerminal reports whether f is attached to a terminal, Cygwin ptys included.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ConsoleWidth returns the width of the terminal behind f in columns, or 0 if it cannot
// be determined.
func ConsoleWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}

	return width
}

// SignalsFromProcess collects detection signals from the running process and the given
// output file.
func SignalsFromProcess(out *os.File, overrides Overrides) Signals {
	return Signals{
		Env:       EnvironFromOS(),
		IsTTY:     IsTerminal(out),
		Width:     ConsoleWidth(out),
		Overrides: overrides,
	}
}
