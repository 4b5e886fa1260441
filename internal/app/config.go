package app

import "time"

// Config holds runtime configuration for one export run.
type Config struct {
	URL        string
	OutputPath string

	// Format selects the export artifact: markdown, html, print, json,
	// png, or pdf.
	Format string

	// Lang is the locale hint forwarded to the enrichment endpoint.
	Lang string

	// LoadTimeout bounds the initial page-load wait.
	LoadTimeout time.Duration

	// Enrichment
	DisableEnrich bool
	MaxEnrich     int

	// PNG export
	Scale         float64
	MaxTileHeight int

	// PDFSimple bypasses the browser print path and writes a basic PDF
	// directly from the Markdown rendering.
	PDFSimple bool

	Verbose bool
}
