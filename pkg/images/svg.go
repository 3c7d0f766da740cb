package images

import (
	"bytes"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterizer renders vector image data at a target pixel size.
type Rasterizer interface {
	Rasterize(data []byte, width, height int) (image.Image, error)
}

// IsSVG reports whether data is an SVG document.
func IsSVG(data []byte) bool {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}

	root := svgRoot(trimmed)
	return root != nil
}

func svgRoot(data []byte) *etree.Element {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil
	}

	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil
	}
	return root
}

// SVGSize returns the intrinsic size of an SVG document from its width and height
// attributes, falling back to the view box and then to the CSS default of 300×150.
func SVGSize(data []byte) (float64, float64, error) {
	root := svgRoot(data)
	if root == nil {
		return 0, 0, fmt.Errorf("%w: not an SVG document", ErrDecode)
	}

	width, wok := svgLength(root.SelectAttrValue("width", ""))
	height, hok := svgLength(root.SelectAttrValue("height", ""))

	if !wok || !hok {
		if box := strings.Fields(strings.ReplaceAll(root.SelectAttrValue("viewBox", ""), ",", " ")); len(box) == 4 {
			bw, err1 := strconv.ParseFloat(box[2], 64)
			bh, err2 := strconv.ParseFloat(box[3], 64)
			if err1 == nil && err2 == nil && bw > 0 && bh > 0 {
				switch {
				case !wok && !hok:
					width, height = bw, bh
				case !wok:
					width = height * bw / bh
				default:
					height = width * bh / bw
				}
				wok, hok = true, true
			}
		}
	}

	if !wok {
		width = 300
	}
	if !hok {
		height = 150
	}

	return width, height, nil
}

func svgLength(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasSuffix(value, "%") {
		return 0, false
	}
	value = strings.TrimSuffix(value, "px")

	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// OksvgRasterizer rasterizes with oksvg and rasterx.
type OksvgRasterizer struct{}

func (OksvgRasterizer) Rasterize(data []byte, width, height int) (img image.Image, err error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid raster size %dx%d", ErrDecode, width, height)
	}

	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: rasterizer failed: %v", ErrDecode, r)
		}
	}()

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)

	return rgba, nil
}
