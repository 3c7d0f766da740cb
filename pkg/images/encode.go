package images

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/eliukblau/pixterm/pkg/ansimage"

	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/styles"
)

const (
	kittyChunkSize = 4096

	// KittyAbort terminates a chunked upload that was cut short.
	KittyAbort = "\x1b_Gm=0;\x1b\\"
)

// ITerm2 encodes data as a single inline file sequence sized in cells.
func ITerm2(data []byte, cells Cells) []output.Run {
	seq := fmt.Sprintf("\x1b]1337;File=size=%d;width=%d;height=%d;inline=1;preserveAspectRatio=1:%s\a",
		len(data), cells.Width, cells.Height, base64.StdEncoding.EncodeToString(data))

	return []output.Run{output.Control(seq, "")}
}

// Kitty encodes PNG data for the kitty graphics protocol as a chunked transmit-and-display
// command. Every chunk but the last carries m=1.
func Kitty(pngData []byte, cells Cells) []output.Run {
	payload := base64.StdEncoding.EncodeToString(pngData)

	var runs []output.Run
	first := true
	for {
		chunk, more := payload, 0
		if len(chunk) > kittyChunkSize {
			chunk, more = chunk[:kittyChunkSize], 1
		}
		payload = payload[len(chunk):]

		var seq string
		if first {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,q=2,c=%d,r=%d,m=%d;%s\x1b\\", cells.Width, cells.Height, more, chunk)
			first = false
		} else {
			seq = fmt.Sprintf("\x1b_Gm=%d;%s\x1b\\", more, chunk)
		}

		abort := ""
		if more == 1 {
			abort = KittyAbort
		}
		runs = append(runs, output.Control(seq, abort))

		if more == 0 {
			return runs
		}
	}
}

// Terminology reserves a cell region and lets the terminal load the image from location
// itself. Each reserved row is its own line.
func Terminology(location string, cells Cells) []output.Run {
	runs := []output.Run{
		output.Control(fmt.Sprintf("\x1b}ic#%d;%d;%s\x00", cells.Width, cells.Height, location), ""),
	}

	row := "\x1b}ib\x00" + strings.Repeat("#", cells.Width) + "\x1b}ie\x00"
	for i := 0; i < cells.Height; i++ {
		if i > 0 {
			runs = append(runs, output.Text(styles.Style{}, "\n"))
		}
		runs = append(runs, output.Control(row, ""))
	}

	return runs
}

// Blocks draws the image with coloured half-block characters, for truecolor terminals
// without an image protocol.
func Blocks(img image.Image, cells Cells) ([]output.Run, error) {
	ai, err := ansimage.NewScaledFromImage(img, cells.Height*2, cells.Width, color.Black, ansimage.ScaleModeFit, ansimage.NoDithering)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(ai.Render(), "\n"), "\n")

	var runs []output.Run
	for i, line := range lines {
		if i > 0 {
			runs = append(runs, output.Text(styles.Style{}, "\n"))
		}
		runs = append(runs, output.Control(line, styles.Reset))
	}
	if len(runs) > 0 {
		runs = append(runs, output.Control(styles.Reset, ""))
	}

	return runs, nil
}
