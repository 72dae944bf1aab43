// Copyright 2025 The Agrovet Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by every distance in this package.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Validate reports whether the point is finite and within [-90,90]x[-180,180].
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got %v)", p.Lat)
	}

	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got %v)", p.Lng)
	}

	return nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case string:
		_, err := fmt.Sscanf(v, "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case map[string]interface{}:
		// DuckDB returns STRUCT(x DOUBLE, y DOUBLE) as a map
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// DistanceKm calculates the great-circle distance to other in kilometers.
func (p Point) DistanceKm(other Point) float64 {
	return haversine(p.Lat*degToRad, math.Cos(p.Lat*degToRad), p.Lng*degToRad,
		other.Lat*degToRad, math.Cos(other.Lat*degToRad), other.Lng*degToRad)
}

// haversine works on radians; cosLat1 and cosLat2 are passed in so that
// callers iterating over many points can reuse them.
func haversine(lat1, cosLat1, lng1, lat2, cosLat2, lng2 float64) float64 {
	sinDLat := math.Sin((lat2 - lat1) / 2)
	sinDLng := math.Sin((lng2 - lng1) / 2)

	a := sinDLat*sinDLat + cosLat1*cosLat2*sinDLng*sinDLng
	if a > 1 {
		a = 1
	}

	return 2 * math.Asin(math.Sqrt(a)) * EarthRadiusKm
}
