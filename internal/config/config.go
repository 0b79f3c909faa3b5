// SPDX-License-Identifier: EPL-2.0

// Package config loads squarew settings from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tucommenceapousser/squarew"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Addr            string
	MaxUploadMB     int
	ArchiveName     string
	ShutdownTimeout time.Duration

	// Conversion defaults, overridable per request
	SampleRate  int
	Mode        squarew.Mode
	Threshold   float64
	LowPass     bool
	CutoffHz    float64
	FilterOrder int
	MaxDuration time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// Values that do not parse fall back to the default.
func Load() Config {
	return Config{
		Addr:            envStr("SQUAREW_ADDR", ":8080"),
		MaxUploadMB:     envInt("SQUAREW_MAX_UPLOAD_MB", 64),
		ArchiveName:     envStr("SQUAREW_ARCHIVE_NAME", "square_wave_files.zip"),
		ShutdownTimeout: envDuration("SQUAREW_SHUTDOWN_TIMEOUT", 10*time.Second),

		SampleRate:  envInt("SQUAREW_SAMPLE_RATE", squarew.DefaultSampleRate),
		Mode:        envMode("SQUAREW_MODE", squarew.ModeSign),
		Threshold:   envFloat("SQUAREW_THRESHOLD", squarew.DefaultThreshold),
		LowPass:     envBool("SQUAREW_LOWPASS", false),
		CutoffHz:    envFloat("SQUAREW_CUTOFF_HZ", squarew.DefaultCutoffHz),
		FilterOrder: envInt("SQUAREW_FILTER_ORDER", squarew.DefaultFilterOrder),
		MaxDuration: envDuration("SQUAREW_MAX_DURATION", 10*time.Minute),
	}
}

// RegisterConversionFlags binds the conversion settings to fs, using the
// current values as defaults.
func (c *Config) RegisterConversionFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.SampleRate, "rate", c.SampleRate, "output sample rate in Hz")
	fs.TextVar(&c.Mode, "mode", c.Mode, "clipping mode: sign or threshold")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "dead zone half-width for threshold mode, in [0, 1)")
	fs.BoolVar(&c.LowPass, "lowpass", c.LowPass, "apply the Butterworth low-pass before clipping")
	fs.Float64Var(&c.CutoffHz, "cutoff", c.CutoffHz, "low-pass cutoff in Hz")
	fs.IntVar(&c.FilterOrder, "order", c.FilterOrder, "low-pass filter order (1-8)")
	fs.DurationVar(&c.MaxDuration, "max-duration", c.MaxDuration, "reject inputs longer than this (0 = no limit)")
}

// RegisterServerFlags binds the HTTP server settings to fs.
func (c *Config) RegisterServerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.IntVar(&c.MaxUploadMB, "max-upload-mb", c.MaxUploadMB, "largest accepted request body in MiB")
	fs.StringVar(&c.ArchiveName, "archive-name", c.ArchiveName, "file name of multi-file downloads")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "grace period for in-flight requests")
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Options converts the conversion settings to squarew.Options.
func (c Config) Options() squarew.Options {
	opts := squarew.DefaultOptions()
	opts.SampleRate = c.SampleRate
	opts.Mode = c.Mode
	opts.Threshold = c.Threshold
	opts.LowPass = c.LowPass
	opts.CutoffHz = c.CutoffHz
	opts.FilterOrder = c.FilterOrder
	opts.MaxDuration = c.MaxDuration

	return opts
}

func (c Config) Validate() error {
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: max upload %d MiB", ErrInvalidConfig, c.MaxUploadMB)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout %v", ErrInvalidConfig, c.ShutdownTimeout)
	}
	if strings.TrimSpace(c.ArchiveName) == "" || strings.ContainsAny(c.ArchiveName, `/\"`) {
		return fmt.Errorf("%w: archive name %q", ErrInvalidConfig, c.ArchiveName)
	}

	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envMode(key string, fallback squarew.Mode) squarew.Mode {
	if v := os.Getenv(key); v != "" {
		var m squarew.Mode
		if err := m.UnmarshalText([]byte(v)); err == nil {
			return m
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("30s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
