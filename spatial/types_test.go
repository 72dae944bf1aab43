// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{
			name: "one degree of longitude on the equator",
			a:    Point{Lat: 0, Lng: 0},
			b:    Point{Lat: 0, Lng: 1},
			want: 111.19,
			tol:  1,
		},
		{
			name: "same point",
			a:    Point{Lat: -1.5117552, Lng: 37.2668997},
			b:    Point{Lat: -1.5117552, Lng: 37.2668997},
			want: 0,
			tol:  1e-6,
		},
		{
			name: "Nairobi to Kisumu",
			a:    Point{Lat: -1.286389, Lng: 36.817223},
			b:    Point{Lat: -0.091702, Lng: 34.767956},
			want: 264,
			tol:  5,
		},
		{
			name: "antipodes",
			a:    Point{Lat: 0, Lng: 0},
			b:    Point{Lat: 0, Lng: 180},
			want: math.Pi * EarthRadiusKm,
			tol:  1e-3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.DistanceKm(tt.b), tt.tol)
		})
	}
}

func TestDistanceKmIsSymmetric(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 10, Lng: 10},
		{Lat: -1.5119642, Lng: 37.2669725},
		{Lat: 0.493122, Lng: 34.1335989},
		{Lat: 89.9, Lng: -179.9},
	}

	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, a.DistanceKm(b), b.DistanceKm(a), "%v <-> %v", a, b)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{name: "origin", point: Point{}, wantErr: false},
		{name: "bounds", point: Point{Lat: -90, Lng: 180}, wantErr: false},
		{name: "latitude too big", point: Point{Lat: 90.0001, Lng: 0}, wantErr: true},
		{name: "longitude too small", point: Point{Lat: 0, Lng: -180.5}, wantErr: true},
		{name: "NaN latitude", point: Point{Lat: math.NaN(), Lng: 0}, wantErr: true},
		{name: "infinite longitude", point: Point{Lat: 0, Lng: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPointScan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan(map[string]interface{}{"x": 37.25, "y": -1.5}))
	assert.Equal(t, Point{Lat: -1.5, Lng: 37.25}, p)

	require.NoError(t, p.Scan([]byte("POINT (34.5 0.25)")))
	assert.Equal(t, Point{Lat: 0.25, Lng: 34.5}, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, Point{}, p)

	assert.Error(t, p.Scan(map[string]interface{}{"x": "a"}))
	assert.Error(t, p.Scan(42))
}

func TestBatchMatchesDistanceKm(t *testing.T) {
	origin := Point{Lat: -0.5, Lng: 35.2}

	points := make([]Point, ParallelThreshold+17)
	for i := range points {
		points[i] = Point{
			Lat: -4 + float64(i%800)/100,
			Lng: 33 + float64(i%900)/100,
		}
	}

	batch := NewBatch(points)
	require.Equal(t, len(points), batch.Len())

	got := batch.DistancesKm(origin)
	require.Len(t, got, len(points))

	for i, p := range points {
		assert.InDelta(t, origin.DistanceKm(p), got[i], 1e-9, "index %d", i)
	}
}

func TestBatchEmpty(t *testing.T) {
	batch := NewBatch(nil)
	assert.Equal(t, 0, batch.Len())
	assert.Empty(t, batch.DistancesKm(Point{}))
}

func TestCell(t *testing.T) {
	p := Point{Lat: -1.286389, Lng: 36.817223}

	cell, err := p.Cell(7)
	require.NoError(t, err)
	assert.Equal(t, 7, cell.Resolution())

	center, err := CellCenter(cell)
	require.NoError(t, err)
	// a res 7 cell has an edge of ~1.4 km
	assert.Less(t, p.DistanceKm(center), 2.0)

	_, err = p.Cell(16)
	assert.Error(t, err)

	_, err = p.Cell(-1)
	assert.Error(t, err)
}
