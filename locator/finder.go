// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"cmp"
	"math"
	"slices"

	"github.com/agrosoil/agrovet/spatial"
)

// RankedSupplier is a supplier annotated with its distance to the query point.
type RankedSupplier struct {
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Products   []string  `json:"products"`
	Prices     []float64 `json:"prices"`
	DistanceKm float64   `json:"distance_km"`
}

type candidate struct {
	index    int
	distance float64
}

// Find returns up to topK suppliers of c within maxDistanceKm of location,
// nearest first. Suppliers at the same distance keep their catalog order.
// An empty result is not an error.
func Find(c *Catalog, location spatial.Point, topK int, maxDistanceKm float64) ([]RankedSupplier, error) {
	if c == nil {
		return nil, newError(ErrorTypeUninitialized, nil, "supplier catalog is not loaded")
	}

	if err := location.Validate(); err != nil {
		return nil, newError(ErrorTypeInvalidLocation, err, "invalid location")
	}

	if topK < 1 {
		return nil, newError(ErrorTypeInvalidQuery, nil, "top_k must be at least 1 (got %d)", topK)
	}

	if math.IsNaN(maxDistanceKm) || math.IsInf(maxDistanceKm, 0) || maxDistanceKm <= 0 {
		return nil, newError(ErrorTypeInvalidQuery, nil, "max distance must be a positive finite number (got %v)", maxDistanceKm)
	}

	distances := c.batch.DistancesKm(location)

	candidates := make([]candidate, 0, min(len(distances), topK))

	for i, d := range distances {
		// the reported distance is rounded, it must stay within the radius too
		if d <= maxDistanceKm && roundKm(d) <= maxDistanceKm {
			candidates = append(candidates, candidate{index: i, distance: d})
		}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if n := cmp.Compare(a.distance, b.distance); n != 0 {
			return n
		}

		return cmp.Compare(a.index, b.index)
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]RankedSupplier, len(candidates))

	for i, cand := range candidates {
		r := c.records[cand.index].clone()
		results[i] = RankedSupplier{
			Name:       r.Name,
			Latitude:   r.Point.Lat,
			Longitude:  r.Point.Lng,
			Products:   r.Products,
			Prices:     r.Prices,
			DistanceKm: roundKm(cand.distance),
		}
	}

	return results, nil
}

func roundKm(d float64) float64 {
	return math.Round(d*100) / 100
}
