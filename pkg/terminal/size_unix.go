//go:build unix

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// CellPixels asks the terminal for its pixel dimensions and derives the size of one cell
// from them.
func CellPixels(f *os.File) CellSize {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 || ws.Xpixel == 0 || ws.Ypixel == 0 {
		return DefaultCellSize
	}

	return CellSize{
		Width:  int(ws.Xpixel) / int(ws.Col),
		Height: int(ws.Ypixel) / int(ws.Row),
	}
}
