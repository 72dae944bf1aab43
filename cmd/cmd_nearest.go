// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/agrosoil/agrovet/locator"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var nearestOptions struct {
	lat, lng float64
	output   string
}

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Lists the agrovets nearest to a location",
	RunE: func(_ *cobra.Command, _ []string) error {
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		l := locator.New(cfg.Defaults())
		l.Swap(catalog)

		res, err := l.Search(locator.SearchRequest{
			Latitude:      &nearestOptions.lat,
			Longitude:     &nearestOptions.lng,
			TopK:          cfg.TopK,
			MaxDistanceKm: cfg.MaxDistanceKm,
		})
		if err != nil {
			return err
		}

		printNearest(os.Stdout, res)

		if nearestOptions.output != "" {
			if err := writeNearestXLSX(nearestOptions.output, res); err != nil {
				return fmt.Errorf("writing %s: %w", nearestOptions.output, err)
			}

			fmt.Printf("Results written to %s\n", nearestOptions.output)
		}

		return nil
	},
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestOptions.lat, "lat", 0, "latitude in decimal degrees")
	nearestCmd.Flags().Float64Var(&nearestOptions.lng, "lng", 0, "longitude in decimal degrees")
	nearestCmd.Flags().StringVarP(&nearestOptions.output, "output", "o", "", "also write the results to this .xlsx file")

	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(nearestCmd)
}

func printNearest(w io.Writer, res *locator.SearchResult) {
	if len(res.Suppliers) == 0 {
		fmt.Fprintf(w, "No agrovets found within %s km of %s\n", formatKm(res.RadiusKm), res.Location)

		return
	}

	fmt.Fprintf(w, "Agrovets nearest to %s (radius %s km):\n", res.Location, formatKm(res.RadiusKm))

	a, b, c, d := strings.Repeat("─", 2), strings.Repeat("─", 32), strings.Repeat("─", 10), strings.Repeat("─", 40)
	fmt.Fprintf(w, "╭─%2s─┬─%-32s─┬─%10s─┬─%-40s╮\n", a, b, c, d)
	fmt.Fprintf(w, "│ %2s │ %-32s │ %10s │ %-40s│\n", "#", "Agrovet", "Km", "Products")
	fmt.Fprintf(w, "├─%2s─┼─%-32s─┼─%10s─┼─%-40s┤\n", a, b, c, d)

	for i, s := range res.Suppliers {
		fmt.Fprintf(w, "│ %2d │ %-32s │ %10.2f │ %-40s│\n",
			i+1, truncate(s.Name, 32), s.DistanceKm, truncate(productList(s), 40))
	}

	fmt.Fprintf(w, "╰─%2s─┴─%-32s─┴─%10s─┴─%-40s╯\n", a, b, c, d)
}

func productList(s locator.RankedSupplier) string {
	parts := make([]string, len(s.Products))

	for i, p := range s.Products {
		if i < len(s.Prices) {
			parts[i] = fmt.Sprintf("%s %s", p, strconv.FormatFloat(s.Prices[i], 'f', -1, 64))
		} else {
			parts[i] = p
		}
	}

	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

const nearestSheet = "Agrovets"

// writeNearestXLSX writes the search result as a single-sheet workbook.
func writeNearestXLSX(path string, res *locator.SearchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(nearestSheet)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(nearestSheet)
	if err != nil {
		return err
	}

	headers := []any{"Rank", "Name", "Latitude", "Longitude", "Distance (km)", "Products", "Prices"}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, s := range res.Suppliers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		prices := make([]string, len(s.Prices))
		for j, p := range s.Prices {
			prices[j] = strconv.FormatFloat(p, 'f', -1, 64)
		}

		row := []any{
			i + 1, s.Name, s.Latitude, s.Longitude, s.DistanceKm,
			strings.Join(s.Products, ", "), strings.Join(prices, ", "),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	return f.SaveAs(path)
}
