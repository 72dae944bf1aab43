// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import "github.com/agrosoil/agrovet/spatial"

// SampleSource is the Source of the catalog returned by Sample.
const SampleSource = "built-in sample"

var sampleRecords = []Record{
	{Name: "Nnnn", Point: spatial.Point{Lat: -1.5117552, Lng: 37.2668997}},
	{Name: "Teso", Point: spatial.Point{Lat: -1.5119642, Lng: 37.2669725}},
	{Name: "GOODWILL FAMERS AGROVET", Point: spatial.Point{Lat: 0.493122, Lng: 34.1335989}},
	{Name: "Farm Choice Agrovet", Point: spatial.Point{Lat: 0.4731916, Lng: 34.1881309}},
	{Name: "Kemodo Agrovet", Point: spatial.Point{Lat: 0.467253065, Lng: 34.18603331}},
}

// Sample returns a small built-in catalog so that development setups work
// without a supplier file. Falling back to it is a caller decision.
func Sample() *Catalog {
	records := make([]Record, len(sampleRecords))
	for i, r := range sampleRecords {
		r.Products = []string{"NPK", "CAN", "DAP"}
		r.Prices = []float64{60, 55, 70}
		records[i] = r
	}

	c, err := NewCatalog(SampleSource, records, Options{})
	if err != nil {
		panic(err) // unreachable: sample coordinates are in range
	}

	return c
}
