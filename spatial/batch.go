// Copyright 2025 The Agrovet Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"math"
	"runtime"
	"sync"
)

// ParallelThreshold is the number of points from which DistancesKm splits the
// work across CPUs.
const ParallelThreshold = 4096

// Batch holds a fixed set of points in struct-of-arrays form, already
// converted to radians, so distances from one origin to all of them can be
// computed in a single tight pass.
type Batch struct {
	lat    []float64
	lng    []float64
	cosLat []float64
}

// NewBatch converts points into a Batch. The input slice is not retained.
func NewBatch(points []Point) *Batch {
	b := &Batch{
		lat:    make([]float64, len(points)),
		lng:    make([]float64, len(points)),
		cosLat: make([]float64, len(points)),
	}

	for i, p := range points {
		b.lat[i] = p.Lat * degToRad
		b.lng[i] = p.Lng * degToRad
		b.cosLat[i] = math.Cos(b.lat[i])
	}

	return b
}

// Len returns the number of points in the batch.
func (b *Batch) Len() int {
	return len(b.lat)
}

// DistancesKm returns the distance in kilometers from origin to every point
// of the batch, in batch order.
func (b *Batch) DistancesKm(origin Point) []float64 {
	out := make([]float64, b.Len())
	if len(out) == 0 {
		return out
	}

	lat := origin.Lat * degToRad
	lng := origin.Lng * degToRad
	cosLat := math.Cos(lat)

	if len(out) < ParallelThreshold {
		b.fill(out, lat, cosLat, lng, 0, len(out))

		return out
	}

	numCPU := runtime.NumCPU()
	chunkSize := (len(out) + numCPU - 1) / numCPU

	var wg sync.WaitGroup

	for start := 0; start < len(out); start += chunkSize {
		end := min(start+chunkSize, len(out))

		wg.Add(1)

		go func(s, e int) {
			defer wg.Done()

			b.fill(out, lat, cosLat, lng, s, e)
		}(start, end)
	}

	wg.Wait()

	return out
}

func (b *Batch) fill(out []float64, lat, cosLat, lng float64, start, end int) {
	for i := start; i < end; i++ {
		out[i] = haversine(lat, cosLat, lng, b.lat[i], b.cosLat[i], b.lng[i])
	}
}
