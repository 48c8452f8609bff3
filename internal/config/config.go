// Package config loads Loupe's TOML configuration, falling back to defaults
// when the file is missing so the tool works out of the box.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultConfigPath = "~/.config/loupe/config.toml"

// Config carries the tunable ingestion and analysis parameters.
type Config struct {
	// SpikeMultiplier is the anomaly frequency-spike threshold: a template is
	// flagged when its current count exceeds SpikeMultiplier times its
	// baseline count. Counts compare raw, without sample-size normalization.
	SpikeMultiplier int `toml:"spike_multiplier"`

	// DetectSampleLines and DetectMinRate drive format auto-detection.
	DetectSampleLines int     `toml:"detect_sample_lines"`
	DetectMinRate     float64 `toml:"detect_min_rate"`

	// Sources larger than ChunkThresholdBytes load a bounded prefix
	// synchronously and the remainder in background batches.
	ChunkThresholdBytes int64 `toml:"chunk_threshold_bytes"`
	InitialChunkLines   int   `toml:"initial_chunk_lines"`
	ChunkBatchLines     int   `toml:"chunk_batch_lines"`

	// MaxLineBytes is the per-line size guard; longer lines truncate.
	MaxLineBytes int `toml:"max_line_bytes"`

	// Parser forces a named parser instead of auto-detection.
	Parser string `toml:"parser"`

	// LogLevel controls diagnostic output (zerolog level names).
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SpikeMultiplier:     5,
		DetectSampleLines:   20,
		DetectMinRate:       0.5,
		ChunkThresholdBytes: 1 << 20,
		InitialChunkLines:   10000,
		ChunkBatchLines:     50000,
		MaxLineBytes:        1 << 20,
		LogLevel:            "warn",
	}
}

// Load reads the config at path, or the default location when path is
// empty. A missing file is not an error; defaults apply, as they do for any
// field left unset.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw Config
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.merge(raw)
	return cfg, nil
}

func (c *Config) merge(raw Config) {
	if raw.SpikeMultiplier > 0 {
		c.SpikeMultiplier = raw.SpikeMultiplier
	}
	if raw.DetectSampleLines > 0 {
		c.DetectSampleLines = raw.DetectSampleLines
	}
	if raw.DetectMinRate > 0 {
		c.DetectMinRate = raw.DetectMinRate
	}
	if raw.ChunkThresholdBytes > 0 {
		c.ChunkThresholdBytes = raw.ChunkThresholdBytes
	}
	if raw.InitialChunkLines > 0 {
		c.InitialChunkLines = raw.InitialChunkLines
	}
	if raw.ChunkBatchLines > 0 {
		c.ChunkBatchLines = raw.ChunkBatchLines
	}
	if raw.MaxLineBytes > 0 {
		c.MaxLineBytes = raw.MaxLineBytes
	}
	if strings.TrimSpace(raw.Parser) != "" {
		c.Parser = strings.TrimSpace(raw.Parser)
	}
	if strings.TrimSpace(raw.LogLevel) != "" {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
