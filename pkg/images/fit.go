package images

import (
	"image"
	"math"

	"github.com/elseano/mdcat/pkg/terminal"
)

// Cells is a size measured in terminal cells.
type Cells struct {
	Width  int
	Height int
}

// Box is the space available to an image. MaxHeight of zero means unbounded.
type Box struct {
	Width     int
	MaxHeight int
}

// Fit computes how many cells an image of the given pixel size occupies. Images are never
// scaled up, keep their aspect ratio, and are rounded down so they can't overflow the box.
func Fit(px image.Point, box Box, cell terminal.CellSize) Cells {
	if px.X <= 0 || px.Y <= 0 {
		return Cells{Width: 1, Height: 1}
	}
	if cell.Width <= 0 || cell.Height <= 0 {
		cell = terminal.DefaultCellSize
	}

	cw, ch := float64(cell.Width), float64(cell.Height)
	ratio := float64(px.Y) / float64(px.X)

	cols := float64(px.X) / cw
	if box.Width > 0 && cols > float64(box.Width) {
		cols = float64(box.Width)
	}

	rows := cols * cw * ratio / ch
	if box.MaxHeight > 0 && rows > float64(box.MaxHeight) {
		rows = float64(box.MaxHeight)
		cols = rows * ch / ratio / cw
	}

	fitted := Cells{Width: int(math.Floor(cols)), Height: int(math.Floor(rows))}

	if box.Width > 0 && fitted.Width > box.Width {
		fitted.Width = box.Width
	}
	if box.MaxHeight > 0 && fitted.Height > box.MaxHeight {
		fitted.Height = box.MaxHeight
	}
	if fitted.Width < 1 {
		fitted.Width = 1
	}
	if fitted.Height < 1 {
		fitted.Height = 1
	}

	return fitted
}
