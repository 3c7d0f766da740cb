package images

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/terminal"
	"github.com/elseano/mdcat/pkg/util"
)

const DefaultPlaceholder = "[image]"

var ErrNoFetcher = errors.New("no fetcher configured")

// Ref is an image reference as it appears in the document.
type Ref struct {
	Source string
	Alt    string
}

// Result is either encoded protocol runs or, when Runs is empty, the fallback text. Err
// records why the fallback was chosen; it is informational only.
type Result struct {
	Runs     []output.Run
	Fallback string
	Cells    Cells
	Err      error
}

func (r Result) IsFallback() bool {
	return len(r.Runs) == 0
}

// Pipeline embeds one image at a time. Nothing is cached between calls.
type Pipeline struct {
	Fetcher    Fetcher
	Rasterizer Rasterizer
	Cell       terminal.CellSize

	// BaseDir resolves relative references for protocols that load images themselves.
	BaseDir     string
	Placeholder string

	// Describe makes fallbacks carry the image's pixel size and format.
	Describe bool

	// Blocks draws images with half-block characters on truecolor terminals which weren't
	// detected as supporting any image protocol.
	Blocks bool
}

func NewPipeline(fetcher Fetcher, baseDir string, cell terminal.CellSize) *Pipeline {
	return &Pipeline{
		Fetcher:     fetcher,
		Rasterizer:  OksvgRasterizer{},
		Cell:        cell,
		BaseDir:     baseDir,
		Placeholder: DefaultPlaceholder,
	}
}

func (p *Pipeline) Embed(ctx context.Context, ref Ref, box Box, caps terminal.Capabilities) Result {
	log := util.Component("images").With().Str("source", ref.Source).Str("protocol", caps.ImageProtocol.String()).Logger()

	// Plain output can't carry protocol sequences, only the fallback text.
	if caps.ImageProtocol == terminal.NoImages || caps.Plain {
		if p.Blocks && !caps.ImagesDisabled && !caps.Plain && caps.ColorDepth == terminal.TrueColor {
			return p.blocks(ctx, ref, box)
		}
		if p.Describe {
			return p.describe(ctx, ref)
		}
		return p.fallback(ref, nil)
	}

	data, err := p.fetch(ctx, ref.Source)
	if err != nil {
		log.Debug().Err(err).Msg("Image fetch failed, using fallback")
		return p.fallback(ref, err)
	}

	if caps.ImageProtocol == terminal.Terminology {
		px, _, err := DecodeHeader(data)
		if err != nil {
			log.Debug().Err(err).Msg("Image header unreadable, using fallback")
			return p.fallback(ref, err)
		}

		location, err := ResolveReference(p.BaseDir, ref.Source)
		if err != nil {
			return p.fallback(ref, err)
		}

		cells := Fit(px, box, p.Cell)
		target := location.String()
		if location.Scheme == "file" {
			target = location.Path
		}
		return Result{Runs: Terminology(target, cells), Cells: cells}
	}

	native := func(format string) bool { return format == "png" }
	if caps.ImageProtocol == terminal.ITerm2 {
		native = func(format string) bool { return format == "png" || format == "jpeg" || format == "gif" }
	}

	img, format, err := p.decode(data, box)
	if err != nil {
		log.Debug().Err(err).Msg("Image decode failed, using fallback")
		return p.fallback(ref, err)
	}

	cells := Fit(img.Bounds().Size(), box, p.Cell)

	payload := data
	if !native(format) {
		if payload, err = encodePNG(img); err != nil {
			log.Debug().Err(err).Msg("Image encode failed, using fallback")
			return p.fallback(ref, err)
		}
	}

	log.Trace().Str("format", format).Int("columns", cells.Width).Int("rows", cells.Height).Msg("Embedding image")

	if caps.ImageProtocol == terminal.Kitty {
		return Result{Runs: Kitty(payload, cells), Cells: cells}
	}
	return Result{Runs: ITerm2(payload, cells), Cells: cells}
}

func (p *Pipeline) fetch(ctx context.Context, source string) ([]byte, error) {
	if p.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	return p.Fetcher.Fetch(ctx, source)
}

// decode returns the image to display. Vector images are rasterized at the pixel size of
// the cells they will occupy.
func (p *Pipeline) decode(data []byte, box Box) (image.Image, string, error) {
	if !IsSVG(data) {
		return DecodeRaster(data)
	}

	if p.Rasterizer == nil {
		return nil, "", fmt.Errorf("%w: no rasterizer for svg", ErrDecode)
	}

	w, h, err := SVGSize(data)
	if err != nil {
		return nil, "", err
	}

	cell := p.Cell
	if cell.Width <= 0 || cell.Height <= 0 {
		cell = terminal.DefaultCellSize
	}

	cells := Fit(image.Pt(int(math.Ceil(w)), int(math.Ceil(h))), box, cell)
	tw := cells.Width * cell.Width
	th := int(math.Max(1, math.Round(float64(tw)*h/w)))

	img, err := p.Rasterizer.Rasterize(data, tw, th)
	if err != nil {
		return nil, "", err
	}
	return img, "svg", nil
}

func (p *Pipeline) describe(ctx context.Context, ref Ref) Result {
	result := p.fallback(ref, nil)

	data, err := p.fetch(ctx, ref.Source)
	if err != nil {
		result.Err = err
		return result
	}

	px, format, err := DecodeHeader(data)
	if err != nil {
		result.Err = err
		return result
	}

	result.Fallback = fmt.Sprintf("%s (%d×%d %s)", result.Fallback, px.X, px.Y, strings.ToUpper(format))
	return result
}

func (p *Pipeline) blocks(ctx context.Context, ref Ref, box Box) Result {
	data, err := p.fetch(ctx, ref.Source)
	if err != nil {
		return p.fallback(ref, err)
	}

	img, _, err := p.decode(data, box)
	if err != nil {
		return p.fallback(ref, err)
	}

	cells := Fit(img.Bounds().Size(), box, p.Cell)
	runs, err := Blocks(img, cells)
	if err != nil {
		return p.fallback(ref, err)
	}

	return Result{Runs: runs, Cells: cells}
}

func (p *Pipeline) fallback(ref Ref, err error) Result {
	text := strings.TrimSpace(ref.Alt)
	if text == "" {
		text = p.Placeholder
	}
	if text == "" {
		text = DefaultPlaceholder
	}
	return Result{Fallback: text, Err: err}
}
