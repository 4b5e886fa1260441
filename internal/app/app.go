// Package app wires the extraction pipeline to the configured export
// format. Everything here is application shell: the core produces a canonical
// Document or an artifact byte buffer, and app decides where it lands.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/threadprint/threadprint/internal/assemble"
	"github.com/threadprint/threadprint/internal/browser"
	"github.com/threadprint/threadprint/internal/normalize"
	"github.com/threadprint/threadprint/internal/raster"
	"github.com/threadprint/threadprint/internal/render"
	"github.com/threadprint/threadprint/internal/syndication"
	"github.com/threadprint/threadprint/internal/thread"
)

var threadHostRe = regexp.MustCompile(`twitter\.com|x\.com`)

// App runs one extraction and export.
type App struct {
	cfg Config
}

func New(cfg Config) *App {
	if cfg.Format == "" {
		cfg.Format = "markdown"
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	return &App{cfg: cfg}
}

// Run extracts the page, normalizes it, and writes the requested artifact.
func (a *App) Run(ctx context.Context) error {
	b, err := browser.Launch()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("browser close failed")
		}
	}()

	page, err := b.Open(ctx, a.cfg.URL, a.cfg.LoadTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("page close failed")
		}
	}()

	asm := &assemble.Assembler{
		Lang:      a.cfg.Lang,
		MaxEnrich: a.cfg.MaxEnrich,
	}
	if !a.cfg.DisableEnrich {
		asm.Enrich = &syndication.Client{UserAgent: userAgent}
	}

	var doc *thread.Document
	if threadHostRe.MatchString(a.cfg.URL) {
		doc, err = asm.Assemble(ctx, page)
	} else {
		var htmlStr string
		htmlStr, err = page.HTML(ctx)
		if err == nil {
			doc, err = asm.Generic(a.cfg.URL, htmlStr)
		}
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", a.cfg.URL, err)
	}

	canon := normalize.Normalize(doc)
	log.Info().Int("items", canon.ItemCount).Str("format", a.cfg.Format).Msg("extraction complete")

	artifact, err := a.export(ctx, b, canon)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, artifact, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.cfg.OutputPath, err)
	}
	log.Info().Str("path", a.cfg.OutputPath).Int("bytes", len(artifact)).Msg("export written")
	return nil
}

const userAgent = "threadprint/1.0 (+https://github.com/threadprint/threadprint)"

func (a *App) export(ctx context.Context, b *browser.Browser, doc thread.Document) ([]byte, error) {
	switch a.cfg.Format {
	case "markdown", "md":
		return []byte(render.Markdown(doc)), nil
	case "html":
		return []byte(render.StyledHTML(doc)), nil
	case "print":
		return []byte(render.PrintHTML(doc)), nil
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	case "png":
		return a.exportPNG(ctx, b, doc)
	case "pdf":
		if a.cfg.PDFSimple {
			return simplePDF(render.Markdown(doc))
		}
		return a.exportPDF(ctx, b, doc)
	default:
		return nil, fmt.Errorf("unknown format %q", a.cfg.Format)
	}
}

// exportPNG rasterizes the styled rendering on a fresh surface. The surface
// is released on success and failure alike.
func (a *App) exportPNG(ctx context.Context, b *browser.Browser, doc thread.Document) ([]byte, error) {
	page, err := b.OpenContent(ctx, render.StyledHTML(doc))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("render surface close failed")
		}
	}()

	exporter := &raster.Exporter{
		Surface:       page,
		Scale:         a.cfg.Scale,
		MaxTileHeight: a.cfg.MaxTileHeight,
	}
	return exporter.Export(ctx)
}

func (a *App) exportPDF(ctx context.Context, b *browser.Browser, doc thread.Document) ([]byte, error) {
	page, err := b.OpenContent(ctx, render.PrintHTML(doc))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("render surface close failed")
		}
	}()
	return page.PrintPDF(ctx)
}
