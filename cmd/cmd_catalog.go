// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/agrosoil/agrovet/locator"
	"github.com/agrosoil/agrovet/store"
	"github.com/agrosoil/agrovet/utils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspects and manages the supplier catalog",
}

var catalogOptions struct {
	h3Res    int
	topCells int
	replace  bool
	ifEmpty  bool
}

var catalogInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Prints the load report and H3 coverage of the catalog",
	RunE: func(_ *cobra.Command, _ []string) error {
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		cells, err := locator.Coverage(catalog, catalogOptions.h3Res)
		if err != nil {
			return err
		}

		printReport(os.Stdout, catalog.Report())
		printCoverage(os.Stdout, cells, catalogOptions.h3Res, catalogOptions.topCells)

		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Loads the --data file or URL into the database",
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.Data == "" {
			return errNoData
		}

		catalog, err := loadConfiguredCatalog(cfg)
		if err != nil {
			return err
		}

		closeDB, repo, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		if catalogOptions.replace {
			if err := repo.Clear(); err != nil {
				return fmt.Errorf("clearing suppliers: %w", err)
			}
		}

		records := catalog.Records()

		var progress func()

		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar := progressbar.NewOptions(len(records),
				progressbar.OptionSetDescription("Importing "+cfg.Data),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			progress = func() { _ = bar.Add(1) }

			defer func() { _ = bar.Finish() }()
		}

		if err := repo.BulkInsert(records, progress); err != nil {
			return fmt.Errorf("importing suppliers: %w", err)
		}

		total, err := repo.Count()
		if err != nil {
			return fmt.Errorf("counting suppliers: %w", err)
		}

		log.Printf("✅ Imported %s suppliers into %s (%s total)",
			utils.FormatInt(int64(len(records))), store.Path(cfg.DBPath), utils.FormatInt(int64(total)))

		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Exports the database suppliers to a JSON seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		closeDB, repo, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := store.ExportToJSON(repo, args[0])
		if err != nil {
			return fmt.Errorf("exporting suppliers: %w", err)
		}

		log.Printf("✅ Exported %s suppliers to %s", utils.FormatInt(int64(n)), args[0])

		return nil
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Loads a JSON seed file into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		closeDB, repo, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		if catalogOptions.ifEmpty {
			seeded, n, err := store.SeedIfEmpty(repo, args[0])
			if err != nil {
				return fmt.Errorf("seeding database: %w", err)
			}

			if seeded {
				log.Printf("✅ Seeded %s suppliers from %s", utils.FormatInt(int64(n)), args[0])
			} else {
				log.Printf("Database already has %s suppliers (or no seed file), nothing to do", utils.FormatInt(int64(n)))
			}

			return nil
		}

		if catalogOptions.replace {
			if err := repo.Clear(); err != nil {
				return fmt.Errorf("clearing suppliers: %w", err)
			}
		}

		n, err := store.ImportFromJSON(repo, args[0])
		if err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}

		log.Printf("✅ Seeded %s suppliers from %s", utils.FormatInt(int64(n)), args[0])

		return nil
	},
}

func init() {
	catalogInspectCmd.Flags().IntVar(&catalogOptions.h3Res, "h3-res", 5, "H3 resolution used for the coverage summary")
	catalogInspectCmd.Flags().IntVar(&catalogOptions.topCells, "top", 10, "number of busiest cells to print (0 for all)")
	catalogImportCmd.Flags().BoolVar(&catalogOptions.replace, "replace", false, "remove existing suppliers first")
	catalogSeedCmd.Flags().BoolVar(&catalogOptions.replace, "replace", false, "remove existing suppliers first")
	catalogSeedCmd.Flags().BoolVar(&catalogOptions.ifEmpty, "if-empty", false, "only seed when the database has no suppliers")

	catalogCmd.AddCommand(catalogInspectCmd, catalogImportCmd, catalogExportCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}

func printReport(w io.Writer, r locator.LoadReport) {
	fmt.Fprintf(w, "Source:   %s\n", r.Source)
	fmt.Fprintf(w, "Rows:     %s\n", utils.FormatInt(int64(r.Rows)))
	fmt.Fprintf(w, "Loaded:   %s\n", utils.FormatInt(int64(r.Loaded)))
	fmt.Fprintf(w, "Dropped:  %s\n", utils.FormatInt(int64(r.Dropped)))
	fmt.Fprintf(w, "Warnings: %s\n", utils.FormatInt(int64(len(r.Warnings))))

	if len(r.Columns) > 0 {
		fields := make([]string, 0, len(r.Columns))
		for f, header := range r.Columns {
			fields = append(fields, fmt.Sprintf("%s=%q", f, header))
		}

		slices.Sort(fields)
		fmt.Fprintf(w, "Columns:  %s\n", strings.Join(fields, " "))
	}

	if len(r.IgnoredColumns) > 0 {
		fmt.Fprintf(w, "Ignored:  %s\n", strings.Join(r.IgnoredColumns, ", "))
	}
}

func printCoverage(w io.Writer, cells []locator.CellCount, res, top int) {
	fmt.Fprintf(w, "\nH3 coverage at resolution %d: %d cells\n", res, len(cells))

	if top > 0 && len(cells) > top {
		cells = cells[:top]
	}

	if len(cells) == 0 {
		return
	}

	a, b, c := strings.Repeat("─", 16), strings.Repeat("─", 8), strings.Repeat("─", 24)
	fmt.Fprintf(w, "╭─%-16s─┬─%8s─┬─%-24s╮\n", a, b, c)
	fmt.Fprintf(w, "│ %-16s │ %8s │ %-24s│\n", "Cell", "Agrovets", "Center")
	fmt.Fprintf(w, "├─%-16s─┼─%8s─┼─%-24s┤\n", a, b, c)

	for _, cell := range cells {
		center := fmt.Sprintf("%.5f, %.5f", cell.Center.Lat, cell.Center.Lng)
		fmt.Fprintf(w, "│ %-16s │ %8d │ %-24s│\n", cell.Cell, cell.Count, center)
	}

	fmt.Fprintf(w, "╰─%-16s─┴─%8s─┴─%-24s╯\n", a, b, c)
}
