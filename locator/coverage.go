// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"cmp"
	"slices"

	"github.com/agrosoil/agrovet/spatial"
	"github.com/uber/h3-go/v4"
)

// CellCount is the number of suppliers inside one H3 cell.
type CellCount struct {
	Cell   string        `json:"cell"`
	Count  int           `json:"count"`
	Center spatial.Point `json:"center"`
}

// Coverage groups the suppliers of c by H3 cell at resolution res, busiest
// cells first.
func Coverage(c *Catalog, res int) ([]CellCount, error) {
	if c == nil {
		return nil, newError(ErrorTypeUninitialized, nil, "supplier catalog is not loaded")
	}

	if res < 0 || res > spatial.MaxH3Resolution {
		return nil, newError(ErrorTypeInvalidQuery, nil,
			"h3 resolution must be between 0 and %d (got %d)", spatial.MaxH3Resolution, res)
	}

	counts := make(map[h3.Cell]int)

	for _, r := range c.records {
		cell, err := r.Point.Cell(res)
		if err != nil {
			return nil, err
		}

		counts[cell]++
	}

	out := make([]CellCount, 0, len(counts))

	for cell, n := range counts {
		center, err := spatial.CellCenter(cell)
		if err != nil {
			return nil, err
		}

		out = append(out, CellCount{Cell: cell.String(), Count: n, Center: center})
	}

	slices.SortFunc(out, func(a, b CellCount) int {
		if n := cmp.Compare(b.Count, a.Count); n != 0 {
			return n
		}

		return cmp.Compare(a.Cell, b.Cell)
	})

	return out, nil
}
