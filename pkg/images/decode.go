package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrDecode = errors.New("cannot decode image")

// DecodeHeader reads only as much of data as needed to learn its pixel size and format.
func DecodeHeader(data []byte) (image.Point, string, error) {
	if IsSVG(data) {
		w, h, err := SVGSize(data)
		if err != nil {
			return image.Point{}, "", err
		}
		return image.Pt(int(w+0.5), int(h+0.5)), "svg", nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Point{}, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Point{}, "", fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}

	return image.Pt(cfg.Width, cfg.Height), format, nil
}

// DecodeRaster fully decodes a raster image.
func DecodeRaster(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
