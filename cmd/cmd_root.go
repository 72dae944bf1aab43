// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/agrosoil/agrovet/config"
	"github.com/agrosoil/agrovet/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "agrovet",
	Short: "find the agrovet suppliers nearest to a farm",
	Long: `
agrovet ranks agricultural input suppliers (agrovets) by great-circle distance
to a location, from a CSV/XLSX catalog or from the local DuckDB database.

Settings are read from the environment (and a .env file) and may be
overridden with flags.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		env, err := config.FromEnv()
		if err != nil {
			return fmt.Errorf("reading environment: %w", err)
		}

		cfg = mergeFlags(cmd.Flags(), env, flagCfg)

		return cfg.Validate()
	},
}

var rootOptions struct {
	traceHTTP     bool
	traceHTTPBody bool
}

var (
	// flagCfg receives the raw flag values, cfg the effective settings.
	flagCfg = config.Default()
	cfg     = config.Default()
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flagCfg.Data, "data", "", "CSV or XLSX supplier file or http(s) URL (default: the database)")
	f.StringVar(&flagCfg.DBPath, "db-path", flagCfg.DBPath, "directory holding "+store.DatabaseFile)
	f.StringVar(&flagCfg.Sheet, "sheet", "", "XLSX worksheet (default: first sheet)")
	f.StringVar(&flagCfg.Delimiter, "delimiter", flagCfg.Delimiter, `CSV delimiter ("\t" for tab)`)
	f.Float64Var(&flagCfg.MaxDropRatio, "max-drop-ratio", flagCfg.MaxDropRatio, "share of malformed rows tolerated before a load fails (>= 1 never fails)")
	f.BoolVar(&flagCfg.SampleFallback, "sample-fallback", false, "use the built-in sample catalog when no data can be loaded")
	f.IntVar(&flagCfg.TopK, "top-k", flagCfg.TopK, "suppliers returned per query")
	f.Float64Var(&flagCfg.MaxDistanceKm, "max-distance-km", flagCfg.MaxDistanceKm, "search radius in km")
	f.BoolVar(&rootOptions.traceHTTP, "trace-http", false, "dump HTTP traffic when --data is a URL")
	f.BoolVar(&rootOptions.traceHTTPBody, "trace-http-body", false, "include response bodies in the HTTP dump")
}

// mergeFlags overlays the flags the user actually set on the environment
// settings.
func mergeFlags(flags *pflag.FlagSet, env, fl config.Config) config.Config {
	merged := env

	set := map[string]func(){
		"data":            func() { merged.Data = fl.Data },
		"db-path":         func() { merged.DBPath = fl.DBPath },
		"sheet":           func() { merged.Sheet = fl.Sheet },
		"delimiter":       func() { merged.Delimiter = fl.Delimiter },
		"max-drop-ratio":  func() { merged.MaxDropRatio = fl.MaxDropRatio },
		"sample-fallback": func() { merged.SampleFallback = fl.SampleFallback },
		"top-k":           func() { merged.TopK = fl.TopK },
		"max-distance-km": func() { merged.MaxDistanceKm = fl.MaxDistanceKm },
		"addr":            func() { merged.Addr = fl.Addr },
	}

	for name, apply := range set {
		if flags.Changed(name) {
			apply()
		}
	}

	return merged
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
