package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional single-file configuration schema. Nested
// sections map naturally to the flag namespace; precedence is flags > env >
// file > defaults.
type FileConfig struct {
	URL    string `yaml:"url"`
	Output string `yaml:"output"`
	Format string `yaml:"format"`
	Lang   string `yaml:"lang"`

	LoadTimeout time.Duration `yaml:"loadTimeout"`

	Enrich struct {
		Disable bool `yaml:"disable"`
		Max     int  `yaml:"max"`
	} `yaml:"enrich"`

	PNG struct {
		Scale         float64 `yaml:"scale"`
		MaxTileHeight int     `yaml:"maxTileHeight"`
	} `yaml:"png"`

	PDF struct {
		Simple bool `yaml:"simple"`
	} `yaml:"pdf"`

	Verbose bool `yaml:"verbose"`
}

// LoadFileConfig reads and parses the YAML config at path. A missing file is
// reported distinctly so callers can treat an explicit path as required and
// a default path as optional.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, err
		}
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// Apply overlays file values onto cfg for every field the caller has not
// already set.
func (fc FileConfig) Apply(cfg *Config) {
	if cfg.URL == "" {
		cfg.URL = fc.URL
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.Format == "" {
		cfg.Format = fc.Format
	}
	if cfg.Lang == "" {
		cfg.Lang = fc.Lang
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = fc.LoadTimeout
	}
	if !cfg.DisableEnrich {
		cfg.DisableEnrich = fc.Enrich.Disable
	}
	if cfg.MaxEnrich == 0 {
		cfg.MaxEnrich = fc.Enrich.Max
	}
	if cfg.Scale == 0 {
		cfg.Scale = fc.PNG.Scale
	}
	if cfg.MaxTileHeight == 0 {
		cfg.MaxTileHeight = fc.PNG.MaxTileHeight
	}
	if !cfg.PDFSimple {
		cfg.PDFSimple = fc.PDF.Simple
	}
	if !cfg.Verbose {
		cfg.Verbose = fc.Verbose
	}
}
