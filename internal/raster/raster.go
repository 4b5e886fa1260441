// Package raster captures a full-length page image from a render surface
// that caps single-capture height, by tiling the vertical extent and
// stitching the tiles into one bitmap.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/rs/zerolog/log"
)

// ErrCaptureFailed aborts the whole export; no partial image is produced.
var ErrCaptureFailed = errors.New("tile capture failed")

// MaxPixels is the hard ceiling on either scaled dimension of the final
// bitmap.
const MaxPixels = 16000

// DefaultMaxTileHeight bounds one capture in device pixels.
const DefaultMaxTileHeight = 7000

// Clip is a capture region in CSS pixels plus the device scale to apply.
type Clip struct {
	X, Y          int
	Width, Height int
	Scale         float64
}

// Surface is the out-of-process render target. All commands are
// request/response with one in flight at a time; the caller owns the surface
// lifecycle and must release it on success and failure alike.
type Surface interface {
	// ContentSize returns the full content width and height in CSS pixels.
	ContentSize(ctx context.Context) (width, height int, err error)
	// Capture screenshots one clip region.
	Capture(ctx context.Context, clip Clip) (image.Image, error)
}

// Exporter drives a Surface to produce one PNG spanning the whole content
// height.
type Exporter struct {
	Surface       Surface
	Scale         float64 // requested device scale, default 2, floor 1
	MaxTileHeight int     // device pixels per tile, default DefaultMaxTileHeight
}

// FitScale lowers the requested scale proportionally so both scaled
// dimensions fit within MaxPixels, but never below 1.
func FitScale(width, height int, requested float64) float64 {
	scale := requested
	if scale < 1 {
		return 1
	}
	if limit := float64(MaxPixels) / float64(width); scale > limit {
		scale = limit
	}
	if limit := float64(MaxPixels) / float64(height); scale > limit {
		scale = limit
	}
	if scale < 1 {
		return 1
	}
	return scale
}

// Export measures the content, captures it as sequential tiles, stitches
// them, and returns PNG bytes. Any tile failure fails the whole export.
func (e *Exporter) Export(ctx context.Context) ([]byte, error) {
	width, height, err := e.Surface.ContentSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("measure content: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("measure content: empty layout %dx%d", width, height)
	}

	requested := e.Scale
	if requested <= 0 {
		requested = 2
	}
	scale := FitScale(width, height, requested)

	maxTile := e.MaxTileHeight
	if maxTile <= 0 {
		maxTile = DefaultMaxTileHeight
	}
	// Tile height back in CSS pixels so clips line up with the layout.
	tileCSS := int(float64(maxTile) / scale)
	if tileCSS < 1 {
		tileCSS = 1
	}

	log.Debug().Int("width", width).Int("height", height).Float64("scale", scale).Msg("capturing tiles")

	var tiles []image.Image
	for y := 0; y < height; y += tileCSS {
		h := tileCSS
		if y+h > height {
			h = height - y
		}
		img, err := e.Surface.Capture(ctx, Clip{Y: y, Width: width, Height: h, Scale: scale})
		if err != nil {
			return nil, fmt.Errorf("%w: tile at y=%d: %v", ErrCaptureFailed, y, err)
		}
		tiles = append(tiles, img)
	}

	stitched, err := Stitch(tiles)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, stitched); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Stitch composites sequential tiles top-to-bottom onto one canvas. A single
// tile is returned verbatim. Tiles are already in device pixels at the first
// tile's effective scale, so vertical offsets accumulate directly.
func Stitch(tiles []image.Image) (image.Image, error) {
	if len(tiles) == 0 {
		return nil, errors.New("no tiles to stitch")
	}
	if len(tiles) == 1 {
		return tiles[0], nil
	}

	width, height := 0, 0
	for _, t := range tiles {
		b := t.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	y := 0
	for _, t := range tiles {
		b := t.Bounds()
		dst := image.Rect(0, y, b.Dx(), y+b.Dy())
		draw.Draw(canvas, dst, t, b.Min, draw.Src)
		y += b.Dy()
	}
	return canvas, nil
}
