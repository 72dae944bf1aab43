// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

// Package config reads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/agrosoil/agrovet/locator"
	"github.com/joho/godotenv"
)

// Environment variables understood by FromEnv.
const (
	EnvData           = "AGROVET_DATA"
	EnvDBPath         = "AGROVET_DB_PATH"
	EnvSheet          = "AGROVET_SHEET"
	EnvDelimiter      = "AGROVET_DELIMITER"
	EnvTopK           = "AGROVET_TOP_K"
	EnvMaxDistanceKm  = "AGROVET_MAX_DISTANCE_KM"
	EnvMaxDropRatio   = "AGROVET_MAX_DROP_RATIO"
	EnvSampleFallback = "AGROVET_SAMPLE_FALLBACK"
	EnvAddr           = "AGROVET_ADDR"
	EnvPort           = "PORT"
)

// Config holds every setting shared by the CLI and the HTTP server.
type Config struct {
	// Data is the CSV or XLSX supplier source. Empty means the database.
	Data string
	// DBPath is the directory holding the DuckDB file.
	DBPath string
	Sheet  string
	// Delimiter is the CSV field separator as typed by the user.
	Delimiter      string
	TopK           int
	MaxDistanceKm  float64
	MaxDropRatio   float64
	SampleFallback bool
	Addr           string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:        ".",
		Delimiter:     ",",
		TopK:          locator.DefaultTopK,
		MaxDistanceKm: locator.DefaultMaxDistanceKm,
		MaxDropRatio:  locator.DefaultMaxDropRatio,
		Addr:          ":8080",
	}
}

// FromEnv loads .env (if present) and overlays the environment on Default.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvData); ok {
		cfg.Data = v
	}

	if v, ok := lookup(EnvDBPath); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := lookup(EnvSheet); ok {
		cfg.Sheet = v
	}

	if v, ok := lookup(EnvDelimiter); ok && v != "" {
		cfg.Delimiter = v
	}

	if v, ok := lookup(EnvTopK); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvTopK, err)
		}

		cfg.TopK = n
	}

	if v, ok := lookup(EnvMaxDistanceKm); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxDistanceKm, err)
		}

		cfg.MaxDistanceKm = f
	}

	if v, ok := lookup(EnvMaxDropRatio); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxDropRatio, err)
		}

		cfg.MaxDropRatio = f
	}

	if v, ok := lookup(EnvSampleFallback); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvSampleFallback, err)
		}

		cfg.SampleFallback = b
	}

	if v, ok := lookup(EnvPort); ok && v != "" {
		cfg.Addr = ":" + v
	}

	// an explicit address beats PORT
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}

	return cfg, nil
}

// Validate checks the settings that cannot be fixed up with defaults.
func (c Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top k must be positive, got %d", c.TopK)
	}

	if !(c.MaxDistanceKm > 0) || math.IsInf(c.MaxDistanceKm, 0) {
		return fmt.Errorf("max distance must be positive, got %g", c.MaxDistanceKm)
	}

	if _, err := c.delimiter(); err != nil {
		return err
	}

	return nil
}

func (c Config) delimiter() (rune, error) {
	switch c.Delimiter {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}

	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}

	r, _ := utf8.DecodeRuneInString(c.Delimiter)

	return r, nil
}

// LoadOptions returns the catalog load options.
func (c Config) LoadOptions() locator.Options {
	delim, err := c.delimiter()
	if err != nil {
		delim = ','
	}

	return locator.Options{
		Sheet:        c.Sheet,
		Delimiter:    delim,
		MaxDropRatio: c.MaxDropRatio,
	}
}

// Defaults returns the query defaults.
func (c Config) Defaults() locator.Defaults {
	return locator.Defaults{
		TopK:          c.TopK,
		MaxDistanceKm: c.MaxDistanceKm,
	}
}
