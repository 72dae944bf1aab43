// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

// Package locator loads agrovet supplier catalogs and ranks suppliers by
// great-circle distance to a point.
package locator

import (
	"fmt"
	"log"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/agrosoil/agrovet/spatial"
	"github.com/agrosoil/agrovet/utils"
)

// DefaultMaxDropRatio is the share of malformed rows above which a load fails.
const DefaultMaxDropRatio = 0.5

// Record is a single supplier as read from the source.
type Record struct {
	Name     string        `json:"name"`
	Point    spatial.Point `json:"point"`
	Products []string      `json:"products"`
	Prices   []float64     `json:"prices"`
	// Line is the 1-based row of the source the record came from (the header
	// being line 1). Zero when unknown.
	Line int `json:"line,omitempty"`
}

func (r Record) clone() Record {
	r.Products = slices.Clone(r.Products)
	r.Prices = slices.Clone(r.Prices)

	if r.Products == nil {
		r.Products = []string{}
	}

	if r.Prices == nil {
		r.Prices = []float64{}
	}

	return r
}

// Options control how a supplier source is read.
type Options struct {
	// Sheet selects the worksheet of an XLSX source. Defaults to the first one.
	Sheet string
	// Delimiter of CSV sources. Defaults to ','.
	Delimiter rune
	// MaxDropRatio is the share of data rows that may be dropped for bad
	// coordinates before the load fails. Values <= 0 use DefaultMaxDropRatio,
	// values >= 1 never fail.
	MaxDropRatio float64
}

func (o Options) maxDropRatio() float64 {
	if o.MaxDropRatio <= 0 {
		return DefaultMaxDropRatio
	}

	return o.MaxDropRatio
}

// Warning describes a data quality issue absorbed while loading.
type Warning struct {
	Line   int    `json:"line"`
	Field  Field  `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s %q: %s", w.Line, w.Field, w.Value, w.Reason)
}

// LoadReport summarizes a catalog load.
type LoadReport struct {
	Source         string           `json:"source"`
	Rows           int              `json:"rows"`
	Loaded         int              `json:"loaded"`
	Dropped        int              `json:"dropped"`
	Columns        map[Field]string `json:"columns,omitempty"`
	IgnoredColumns []string         `json:"ignored_columns,omitempty"`
	Warnings       []Warning        `json:"warnings,omitempty"`
}

// Catalog is an immutable set of suppliers ready for distance queries.
type Catalog struct {
	records []Record
	batch   *spatial.Batch
	report  LoadReport
}

// NewCatalog validates records and builds a Catalog owning copies of them.
// Records with non-finite or out-of-range coordinates are dropped; the call
// fails with a DataUnavailable error when too many are.
func NewCatalog(source string, records []Record, opts Options) (*Catalog, error) {
	report := LoadReport{Source: source, Rows: len(records)}
	valid := make([]Record, 0, len(records))

	for _, r := range records {
		if err := r.Point.Validate(); err != nil {
			report.Warnings = append(report.Warnings, Warning{
				Line:   r.Line,
				Field:  FieldLatitude,
				Value:  fmt.Sprintf("%v,%v", r.Point.Lat, r.Point.Lng),
				Reason: err.Error(),
			})
			report.Dropped++

			continue
		}

		if strings.TrimSpace(r.Name) == "" {
			r.Name = fallbackName(r.Line, len(valid))
		}

		valid = append(valid, r.clone())
	}

	return finish(valid, report, opts)
}

// fromRows builds a catalog from a header row followed by data rows.
func fromRows(source string, rows [][]string, opts Options) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, newError(ErrorTypeDataUnavailable, nil, "%s: no header row", source)
	}

	cols := resolveColumns(rows[0])
	if !cols.has(FieldLatitude) || !cols.has(FieldLongitude) {
		return nil, newError(ErrorTypeDataUnavailable, nil,
			"%s: no latitude/longitude columns in header %q", source, rows[0])
	}

	if !cols.has(FieldName) {
		// fall back to the first column by position
		cols.index[FieldName] = 0
		cols.headers[FieldName] = rows[0][0]
	}

	report := LoadReport{
		Source:         source,
		Columns:        cols.headers,
		IgnoredColumns: cols.ignored,
	}

	for _, f := range []Field{FieldProducts, FieldPrices} {
		if !cols.has(f) {
			report.Warnings = append(report.Warnings, Warning{Line: 1, Field: f, Reason: "column not found"})
		}
	}

	records := make([]Record, 0, len(rows)-1)

	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}

		report.Rows++

		point, warn, ok := parsePoint(cols.cell(row, FieldLatitude), cols.cell(row, FieldLongitude))
		if !ok {
			warn.Line = line
			report.Warnings = append(report.Warnings, warn)
			report.Dropped++

			continue
		}

		name := cols.cell(row, FieldName)
		if name == "" {
			name = fallbackName(line, len(records))
			report.Warnings = append(report.Warnings, Warning{
				Line: line, Field: FieldName, Reason: "empty name, using " + strconv.Quote(name),
			})
		}

		prices, bad := parsePrices(cols.cell(row, FieldPrices))
		for _, token := range bad {
			report.Warnings = append(report.Warnings, Warning{
				Line: line, Field: FieldPrices, Value: token, Reason: "invalid price format",
			})
		}

		records = append(records, Record{
			Name:     name,
			Point:    point,
			Products: utils.SplitList(cols.cell(row, FieldProducts)),
			Prices:   prices,
			Line:     line,
		})
	}

	return finish(records, report, opts)
}

func finish(records []Record, report LoadReport, opts Options) (*Catalog, error) {
	report.Loaded = len(records)

	for _, w := range report.Warnings {
		log.Printf("⚠️  %s: %s", report.Source, w)
	}

	if report.Rows > 0 {
		ratio := float64(report.Dropped) / float64(report.Rows)
		if ratio > opts.maxDropRatio() {
			return nil, newError(ErrorTypeDataUnavailable, nil,
				"%s: %d of %d rows have invalid coordinates (limit %.0f%%)",
				report.Source, report.Dropped, report.Rows, opts.maxDropRatio()*100)
		}
	}

	points := make([]spatial.Point, len(records))
	for i, r := range records {
		points[i] = r.Point
	}

	log.Printf("Loaded %s suppliers from %s (%d dropped)",
		utils.FormatInt(int64(report.Loaded)), report.Source, report.Dropped)

	return &Catalog{
		records: records,
		batch:   spatial.NewBatch(points),
		report:  report,
	}, nil
}

// Len returns the number of suppliers.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Source returns where the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.report.Source
}

// Report returns the load report.
func (c *Catalog) Report() LoadReport {
	r := c.report
	r.Columns = maps.Clone(r.Columns)
	r.IgnoredColumns = slices.Clone(r.IgnoredColumns)
	r.Warnings = slices.Clone(r.Warnings)

	return r
}

// Records returns a copy of every supplier, in source order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.clone()
	}

	return out
}

func fallbackName(line, position int) string {
	if line > 0 {
		return fmt.Sprintf("supplier %d", line)
	}

	return fmt.Sprintf("supplier #%d", position+1)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// parseCoordinate accepts a decimal comma, as written by spreadsheets in
// many locales.
func parseCoordinate(val string) (float64, bool) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

func parsePoint(latStr, lngStr string) (spatial.Point, Warning, bool) {
	lat, ok := parseCoordinate(latStr)
	if !ok {
		return spatial.Point{}, Warning{Field: FieldLatitude, Value: latStr, Reason: "invalid latitude"}, false
	}

	lng, ok := parseCoordinate(lngStr)
	if !ok {
		return spatial.Point{}, Warning{Field: FieldLongitude, Value: lngStr, Reason: "invalid longitude"}, false
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return spatial.Point{}, Warning{Field: FieldLatitude, Value: latStr + "," + lngStr, Reason: err.Error()}, false
	}

	return p, Warning{}, true
}

// parsePrices parses a comma separated price list. Tokens that are not
// numbers are skipped and returned in bad.
func parsePrices(cell string) (prices []float64, bad []string) {
	prices = []float64{}

	for _, token := range strings.Split(cell, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		f, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			bad = append(bad, token)

			continue
		}

		prices = append(prices, f)
	}

	return prices, bad
}
