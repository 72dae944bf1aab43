// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrosoil/agrovet/locator"
	"github.com/agrosoil/agrovet/spatial"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *locator.Catalog {
	t.Helper()

	c, err := locator.NewCatalog("test", []locator.Record{
		{Name: "A", Point: spatial.Point{Lat: 0, Lng: 0}, Products: []string{"NPK"}, Prices: []float64{60}},
		{Name: "B", Point: spatial.Point{Lat: 0, Lng: 1}, Products: []string{"CAN"}, Prices: []float64{55}},
		{Name: "C", Point: spatial.Point{Lat: 10, Lng: 10}, Products: []string{"DAP"}, Prices: []float64{70}},
	}, locator.Options{})
	require.NoError(t, err)

	return c
}

func setupServerTest(t *testing.T, c *locator.Catalog, load Loader) (*gin.Engine, *locator.Locator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := locator.New(locator.Defaults{})
	if c != nil {
		l.Swap(c)
	}

	return NewServer(l, load).Router(), l
}

func do(router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	router.ServeHTTP(w, req)

	return w
}

func TestNearestGET(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodGet, "/api/agrovets/nearest?lat=0&lng=0&top_k=2&max_distance_km=200", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp NearestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	_, err := uuid.Parse(resp.QueryID)
	require.NoError(t, err)

	assert.Equal(t, UserLocation{}, resp.UserLocation)
	assert.Equal(t, 200.0, resp.SearchRadiusKm)
	assert.Empty(t, resp.Message)
	assert.NotEmpty(t, resp.Timestamp)
	require.Len(t, resp.NearestAgrovets, 2)
	assert.Equal(t, "A", resp.NearestAgrovets[0].Name)
	assert.Equal(t, "B", resp.NearestAgrovets[1].Name)
	assert.InDelta(t, 111.19, resp.NearestAgrovets[1].DistanceKm, 0.01)
}

func TestNearestPOSTUsesDefaults(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodPost, "/api/agrovets/nearest", []byte(`{"latitude": 0.5, "longitude": 0.5}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp NearestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, locator.DefaultMaxDistanceKm, resp.SearchRadiusKm)
	assert.Len(t, resp.NearestAgrovets, 2)
	assert.Equal(t, UserLocation{Latitude: 0.5, Longitude: 0.5}, resp.UserLocation)
}

func TestNearestEmptyResultMessage(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodGet, "/api/agrovets/nearest?lat=-40&lng=-60&max_distance_km=50", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no agrovets found within 50 km", body["message"])
	assert.Equal(t, []any{}, body["nearest_agrovets"])
}

func TestNearestBadRequests(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	tests := []struct {
		name   string
		method string
		target string
		body   []byte
	}{
		{"missing lat", http.MethodGet, "/api/agrovets/nearest?lng=0", nil},
		{"non numeric", http.MethodGet, "/api/agrovets/nearest?lat=north&lng=0", nil},
		{"latitude out of range", http.MethodGet, "/api/agrovets/nearest?lat=95&lng=0", nil},
		{"longitude out of range", http.MethodPost, "/api/agrovets/nearest", []byte(`{"latitude": 0, "longitude": 200}`)},
		{"negative top k", http.MethodGet, "/api/agrovets/nearest?lat=0&lng=0&top_k=-1", nil},
		{"negative radius", http.MethodGet, "/api/agrovets/nearest?lat=0&lng=0&max_distance_km=-3", nil},
		{"infinite radius", http.MethodGet, "/api/agrovets/nearest?lat=0&lng=34&max_distance_km=Inf", nil},
		{"bad json", http.MethodPost, "/api/agrovets/nearest", []byte(`{"latitude":`)},
		{"missing body fields", http.MethodPost, "/api/agrovets/nearest", []byte(`{}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestUninitialized(t *testing.T) {
	router, _ := setupServerTest(t, nil, nil)

	for _, target := range []string{
		"/healthz",
		"/api/agrovets/nearest?lat=0&lng=0",
		"/api/catalog",
		"/api/catalog/coverage",
	} {
		w := do(router, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","suppliers":3}`, w.Body.String())
}

func TestCatalogSummary(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report locator.LoadReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "test", report.Source)
	assert.Equal(t, 3, report.Loaded)
}

func TestCatalogCoverage(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodGet, "/api/catalog/coverage?res=3", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Resolution int                 `json:"resolution"`
		Cells      []locator.CellCount `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Resolution)

	total := 0
	for _, c := range body.Cells {
		total += c.Count
	}

	assert.Equal(t, 3, total)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/catalog/coverage?res=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/catalog/coverage?res=16", nil).Code)
}

func TestReloadCatalog(t *testing.T) {
	fail := true
	load := func() (*locator.Catalog, error) {
		if fail {
			return nil, &locator.Error{Type: locator.ErrorTypeDataUnavailable, Message: "source gone", Err: errors.New("boom")}
		}

		return locator.Sample(), nil
	}

	first := testCatalog(t)
	router, l := setupServerTest(t, first, load)

	w := do(router, http.MethodPost, "/api/catalog/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Same(t, first, l.Catalog())

	fail = false
	w = do(router, http.MethodPost, "/api/catalog/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"source":"built-in sample","suppliers":5}`, w.Body.String())
	assert.Equal(t, locator.SampleSource, l.Catalog().Source())
}

func TestReloadNotConfigured(t *testing.T) {
	router, _ := setupServerTest(t, testCatalog(t), nil)

	w := do(router, http.MethodPost, "/api/catalog/reload", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
