// Package config holds the application configuration and its loader.
// Configuration is resolved from (lowest to highest precedence) built-in
// defaults, a platecode.yaml file, PLATECODE_* environment variables and
// command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/platecode/internal/pipeline"
)

// Config is the complete application configuration.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Recognition pipeline settings
	Pipeline pipeline.Config `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output settings
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// OutputConfig controls result formatting.
type OutputConfig struct {
	// Format is "text" or "json".
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	// File receives the rendered output; empty means stdout.
	File string `mapstructure:"file" yaml:"file" json:"file"`
	// Overlay enables writing an annotated copy of the input image.
	Overlay bool `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
	// OverlayPath is where the annotated image is written.
	OverlayPath string `mapstructure:"overlay_path" yaml:"overlay_path" json:"overlay_path"`
}

const infoLevel = "info"

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: infoLevel,
		Pipeline: pipeline.DefaultConfig(),
		Output: OutputConfig{
			Format: "text",
		},
	}
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks cross-field consistency. It reports the first problem
// found.
func (c *Config) Validate() error {
	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log level %q (valid: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1 {
		return fmt.Errorf("pipeline.min_confidence %v out of range [0,1]", c.Pipeline.MinConfidence)
	}
	if c.Pipeline.FuzzyThreshold < 0 || c.Pipeline.FuzzyThreshold > 1 {
		return fmt.Errorf("pipeline.fuzzy_threshold %v out of range [0,1]", c.Pipeline.FuzzyThreshold)
	}
	switch c.Pipeline.Engine {
	case "", "tesseract", "paddle":
	default:
		return fmt.Errorf("unknown pipeline.engine %q (valid: tesseract, paddle)", c.Pipeline.Engine)
	}
	switch c.Pipeline.Strategy {
	case "", "contours", "lines", "text":
	default:
		return fmt.Errorf("unknown pipeline.strategy %q (valid: contours, lines, text)", c.Pipeline.Strategy)
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (valid: text, json)", c.Output.Format)
	}
	return nil
}
