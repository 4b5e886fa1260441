package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/threadprint/threadprint/internal/app"
	"github.com/threadprint/threadprint/internal/browser"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		pageURL       string
		outputPath    string
		format        string
		lang          string
		configPath    string
		loadTimeout   time.Duration
		noEnrich      bool
		maxEnrich     int
		pngScale      float64
		maxTileHeight int
		pdfSimple     bool
		verbose       bool
	)

	// Defaults are filled after the optional config file is overlaid, so
	// zero here means "not set on the command line".
	flag.StringVar(&pageURL, "url", "", "Page URL to extract (thread or article)")
	flag.StringVar(&outputPath, "output", "", "Output file path (default derived from format)")
	flag.StringVar(&format, "format", "", "Export format: markdown, html, print, json, png, pdf (default markdown)")
	flag.StringVar(&lang, "lang", os.Getenv("THREADPRINT_LANG"), "Language hint for text enrichment, e.g. 'en' or 'zh'")
	flag.StringVar(&configPath, "config", os.Getenv("THREADPRINT_CONFIG"), "Optional YAML config file; flags take precedence")
	flag.DurationVar(&loadTimeout, "load.timeout", 0, "Maximum time to wait for the initial page load (default 30s)")
	flag.BoolVar(&noEnrich, "enrich.disable", false, "Disable text and media enrichment over the syndication endpoint")
	flag.IntVar(&maxEnrich, "enrich.max", 0, "Maximum posts to enrich per run (0 uses the default cap)")
	flag.Float64Var(&pngScale, "png.scale", 0, "Device scale factor for PNG capture, lowered automatically when the output would exceed pixel limits (default 2)")
	flag.IntVar(&maxTileHeight, "png.maxTileHeight", 0, "Maximum capture tile height in CSS pixels (0 uses the default)")
	flag.BoolVar(&pdfSimple, "pdf.simple", false, "Render PDF from text directly instead of through the browser")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		URL:           pageURL,
		OutputPath:    outputPath,
		Format:        format,
		Lang:          lang,
		LoadTimeout:   loadTimeout,
		DisableEnrich: noEnrich,
		MaxEnrich:     maxEnrich,
		Scale:         pngScale,
		MaxTileHeight: maxTileHeight,
		PDFSimple:     pdfSimple,
		Verbose:       verbose,
	}

	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadFileConfig(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file unreadable")
			os.Exit(2)
		}
		// Flags left unset pick up file values.
		fc.Apply(&cfg)
	}

	if cfg.Format == "" {
		cfg.Format = "markdown"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	if cfg.Scale == 0 {
		cfg.Scale = 2
	}

	if strings.TrimSpace(cfg.URL) == "" {
		fmt.Fprintln(os.Stderr, "usage: threadprint -url <page URL> [-format markdown|html|print|json|png|pdf]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = defaultOutputPath(cfg.Format)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, browser.ErrNoBrowser) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.New(cfg).Run(ctx)
}

func defaultOutputPath(format string) string {
	ext := map[string]string{
		"markdown": ".md",
		"md":       ".md",
		"html":     ".html",
		"print":    ".html",
		"json":     ".json",
		"png":      ".png",
		"pdf":      ".pdf",
	}[format]
	if ext == "" {
		ext = ".out"
	}
	return filepath.Join(".", "thread"+ext)
}
