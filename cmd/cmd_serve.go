// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agrosoil/agrovet/locator"
	"github.com/agrosoil/agrovet/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the nearest-agrovet HTTP API",
	Long: `
Loads the supplier catalog and serves it over HTTP. If the catalog cannot be
loaded the server still starts and answers 503 until POST /api/catalog/reload
succeeds.
`,
	RunE: func(_ *cobra.Command, _ []string) error {
		l := locator.New(cfg.Defaults())
		load := func() (*locator.Catalog, error) { return loadCatalog(cfg) }

		if _, err := l.Reload(load); err != nil {
			log.Printf("❌ %v", err)
			log.Println("⚠️  Starting without a supplier catalog")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.NewServer(l, load).Run(ctx, cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagCfg.Addr, "addr", flagCfg.Addr, "listen address")
	rootCmd.AddCommand(serveCmd)
}
