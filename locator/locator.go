// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/agrosoil/agrovet/spatial"
)

const (
	// DefaultTopK is the number of suppliers returned when a search does not say.
	DefaultTopK = 5
	// DefaultMaxDistanceKm is the search radius used when a search does not say.
	DefaultMaxDistanceKm = 500.0
)

// Defaults are applied to searches that leave top-k or radius unset.
type Defaults struct {
	TopK          int
	MaxDistanceKm float64
}

// Locator serves supplier queries from the current catalog snapshot. The
// catalog can be replaced at any time with Swap; queries already running
// keep using the snapshot they started with.
type Locator struct {
	catalog  atomic.Pointer[Catalog]
	defaults Defaults
}

// New creates a Locator without a catalog. Zero fields of defaults take
// DefaultTopK and DefaultMaxDistanceKm.
func New(defaults Defaults) *Locator {
	if defaults.TopK <= 0 {
		defaults.TopK = DefaultTopK
	}

	if defaults.MaxDistanceKm <= 0 {
		defaults.MaxDistanceKm = DefaultMaxDistanceKm
	}

	return &Locator{defaults: defaults}
}

// Defaults returns the effective search defaults.
func (l *Locator) Defaults() Defaults {
	return l.defaults
}

// Catalog returns the current snapshot, nil if none was loaded.
func (l *Locator) Catalog() *Catalog {
	return l.catalog.Load()
}

// Swap installs c as the current catalog and returns the previous one.
func (l *Locator) Swap(c *Catalog) *Catalog {
	return l.catalog.Swap(c)
}

// Reload loads a new catalog with load and installs it. On failure the
// current catalog stays in place.
func (l *Locator) Reload(load func() (*Catalog, error)) (*Catalog, error) {
	c, err := load()
	if err != nil {
		return nil, fmt.Errorf("reloading supplier catalog: %w", err)
	}

	if c == nil {
		return nil, newError(ErrorTypeDataUnavailable, nil, "reloading supplier catalog: loader returned no catalog")
	}

	l.Swap(c)
	log.Printf("Supplier catalog reloaded from %s: %d suppliers", c.Source(), c.Len())

	return c, nil
}

// Nearest runs Find against the current snapshot.
func (l *Locator) Nearest(location spatial.Point, topK int, maxDistanceKm float64) ([]RankedSupplier, error) {
	return Find(l.Catalog(), location, topK, maxDistanceKm)
}

// SearchRequest is the location payload handed over by the prediction
// pipeline. Coordinates are pointers so that a missing one can be told
// apart from zero.
type SearchRequest struct {
	Latitude      *float64
	Longitude     *float64
	TopK          int
	MaxDistanceKm float64
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Location  spatial.Point
	Suppliers []RankedSupplier
	RadiusKm  float64
	Timestamp time.Time
}

// Search resolves defaults, checks the request and ranks suppliers.
func (l *Locator) Search(req SearchRequest) (*SearchResult, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, newError(ErrorTypeInvalidLocation, nil, "latitude and longitude are required")
	}

	topK := req.TopK
	if topK == 0 {
		topK = l.defaults.TopK
	}

	radius := req.MaxDistanceKm
	if radius == 0 {
		radius = l.defaults.MaxDistanceKm
	}

	location := spatial.Point{Lat: *req.Latitude, Lng: *req.Longitude}

	suppliers, err := l.Nearest(location, topK, radius)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Location:  location,
		Suppliers: suppliers,
		RadiusKm:  radius,
		Timestamp: time.Now().UTC(),
	}, nil
}
