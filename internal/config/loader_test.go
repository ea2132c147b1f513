package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	return &Loader{v: viper.New()}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platecode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithFile(t *testing.T) {
	path := writeConfigFile(t, `
log_level: debug
pipeline:
  min_confidence: 0.6
  engine: paddle
  endpoint: http://localhost:8868/predict/ocr_system
output:
  format: json
`)

	loader := newTestLoader()
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 0.6, cfg.Pipeline.MinConfidence, 1e-9)
	assert.Equal(t, "paddle", cfg.Pipeline.Engine)
	assert.Equal(t, "json", cfg.Output.Format)

	// Defaults fill in whatever the file omits.
	assert.InDelta(t, 0.8, cfg.Pipeline.FuzzyThreshold, 1e-9)
	assert.Equal(t, "contours", cfg.Pipeline.Strategy)
}

func TestLoadWithFileMissing(t *testing.T) {
	loader := newTestLoader()
	_, err := loader.LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	path := writeConfigFile(t, "pipeline:\n  engine: easyocr\n")

	loader := newTestLoader()
	_, err := loader.LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.engine")
}

func TestLoadWithFileMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "pipeline: [not: a: map\n")

	loader := newTestLoader()
	_, err := loader.LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	loader := newTestLoader()
	// Run from a directory without a platecode.yaml.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "tesseract", cfg.Pipeline.Engine)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PLATECODE_PIPELINE_MIN_CONFIDENCE", "0.55")

	loader := newTestLoader()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.55, cfg.Pipeline.MinConfidence, 1e-9)
}
