package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidTile(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestStitch_TallPageOffsets(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	out, err := Stitch([]image.Image{
		solidTile(640, 7000, red),
		solidTile(640, 7000, green),
		solidTile(640, 1000, blue),
	})
	if err != nil {
		t.Fatalf("stitch: %v", err)
	}

	b := out.Bounds()
	if b.Dx() != 640 || b.Dy() != 15000 {
		t.Fatalf("expected 640x15000 canvas, got %dx%d", b.Dx(), b.Dy())
	}

	// Tile boundaries land at the cumulative heights 7000 and 14000.
	cases := []struct {
		y    int
		want color.RGBA
	}{
		{0, red},
		{6999, red},
		{7000, green},
		{13999, green},
		{14000, blue},
		{14999, blue},
	}
	for _, c := range cases {
		r, g, bl, _ := out.At(10, c.y).RGBA()
		got := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 255}
		if got != c.want {
			t.Fatalf("pixel at y=%d is %v, want %v", c.y, got, c.want)
		}
	}
}

func TestStitch_SingleTileVerbatim(t *testing.T) {
	tile := solidTile(10, 10, color.RGBA{R: 1, A: 255})
	out, err := Stitch([]image.Image{tile})
	if err != nil {
		t.Fatalf("stitch: %v", err)
	}
	if out != tile {
		t.Fatalf("expected single tile returned unchanged")
	}
}

func TestStitch_NoTiles(t *testing.T) {
	if _, err := Stitch(nil); err == nil {
		t.Fatalf("expected error for empty tile list")
	}
}

func TestFitScale(t *testing.T) {
	cases := []struct {
		width, height int
		requested     float64
		want          float64
	}{
		{640, 3000, 2, 2},
		{640, 9000, 2, 16000.0 / 9000.0},     // lowered just enough to fit
		{640, 12000, 1.5, 16000.0 / 12000.0}, // fractional requests shrink proportionally
		{640, 20000, 2, 1},                   // never below 1 even when 1 still exceeds
		{640, 3000, 0.5, 1},
	}
	for _, c := range cases {
		if got := FitScale(c.width, c.height, c.requested); got != c.want {
			t.Fatalf("FitScale(%d, %d, %v) = %v, want %v", c.width, c.height, c.requested, got, c.want)
		}
	}
}

// fakeSurface serves deterministic tiles and records requested clips.
type fakeSurface struct {
	width, height int
	clips         []Clip
	failAt        int // 1-based capture index to fail on, 0 disables
}

func (f *fakeSurface) ContentSize(ctx context.Context) (int, int, error) {
	return f.width, f.height, nil
}

func (f *fakeSurface) Capture(ctx context.Context, clip Clip) (image.Image, error) {
	f.clips = append(f.clips, clip)
	if f.failAt > 0 && len(f.clips) == f.failAt {
		return nil, errors.New("devtools target crashed")
	}
	w := int(float64(clip.Width) * clip.Scale)
	h := int(float64(clip.Height) * clip.Scale)
	return solidTile(w, h, color.RGBA{R: 128, A: 255}), nil
}

func TestExport_TilesAndEncodes(t *testing.T) {
	surf := &fakeSurface{width: 640, height: 10500}
	e := &Exporter{Surface: surf, Scale: 1, MaxTileHeight: 7000}

	data, err := e.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(surf.clips) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(surf.clips))
	}
	if surf.clips[0].Y != 0 || surf.clips[1].Y != 7000 {
		t.Fatalf("unexpected tile offsets: %+v", surf.clips)
	}
	if surf.clips[1].Height != 3500 {
		t.Fatalf("expected short final tile, got %d", surf.clips[1].Height)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode exported png: %v", err)
	}
	if img.Bounds().Dy() != 10500 {
		t.Fatalf("expected 10500px output height, got %d", img.Bounds().Dy())
	}
}

func TestExport_ScaleLoweredForTallContent(t *testing.T) {
	surf := &fakeSurface{width: 640, height: 9000}
	e := &Exporter{Surface: surf, Scale: 2, MaxTileHeight: 7000}

	if _, err := e.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	want := 16000.0 / 9000.0
	for _, clip := range surf.clips {
		if clip.Scale != want {
			t.Fatalf("expected scale lowered to %v, got %v", want, clip.Scale)
		}
	}
}

func TestExport_CaptureFailureAborts(t *testing.T) {
	surf := &fakeSurface{width: 640, height: 10500, failAt: 2}
	e := &Exporter{Surface: surf, Scale: 1, MaxTileHeight: 7000}

	_, err := e.Export(context.Background())
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
}

func TestExport_EmptyLayout(t *testing.T) {
	surf := &fakeSurface{width: 0, height: 0}
	e := &Exporter{Surface: surf}
	if _, err := e.Export(context.Background()); err == nil {
		t.Fatalf("expected error for empty layout")
	}
}
