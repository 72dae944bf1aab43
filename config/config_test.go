// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"math"
	"testing"

	"github.com/agrosoil/agrovet/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]

		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, locator.Defaults{TopK: 5, MaxDistanceKm: 500}, cfg.Defaults())
	assert.Equal(t, locator.Options{Delimiter: ',', MaxDropRatio: 0.5}, cfg.LoadOptions())
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		EnvData:           "agrovets.xlsx",
		EnvDBPath:         "/var/lib/agrovet",
		EnvSheet:          "Kenya",
		EnvDelimiter:      ";",
		EnvTopK:           "3",
		EnvMaxDistanceKm:  "120.5",
		EnvMaxDropRatio:   "1",
		EnvSampleFallback: "true",
		EnvPort:           "9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Data:           "agrovets.xlsx",
		DBPath:         "/var/lib/agrovet",
		Sheet:          "Kenya",
		Delimiter:      ";",
		TopK:           3,
		MaxDistanceKm:  120.5,
		MaxDropRatio:   1,
		SampleFallback: true,
		Addr:           ":9000",
	}, cfg)

	assert.Equal(t, ';', cfg.LoadOptions().Delimiter)
}

func TestAddrBeatsPort(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		EnvPort: "9000",
		EnvAddr: "127.0.0.1:7000",
	}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestFromLookupErrors(t *testing.T) {
	for _, key := range []string{EnvTopK, EnvMaxDistanceKm, EnvMaxDropRatio, EnvSampleFallback} {
		t.Run(key, func(t *testing.T) {
			_, err := fromLookup(lookupFrom(map[string]string{key: "lots"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"tab delimiter", func(c *Config) { c.Delimiter = `\t` }, false},
		{"zero top k", func(c *Config) { c.TopK = 0 }, true},
		{"negative distance", func(c *Config) { c.MaxDistanceKm = -1 }, true},
		{"infinite distance", func(c *Config) { c.MaxDistanceKm = math.Inf(1) }, true},
		{"long delimiter", func(c *Config) { c.Delimiter = ";;" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
