// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the supplier locator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/agrosoil/agrovet/locator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Loader produces a fresh catalog for /api/catalog/reload.
type Loader func() (*locator.Catalog, error)

type Server struct {
	locator *locator.Locator
	load    Loader
}

func NewServer(l *locator.Locator, load Loader) *Server {
	return &Server{locator: l, load: load}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.health)
	r.GET("/api/agrovets/nearest", s.nearestQuery)
	r.POST("/api/agrovets/nearest", s.nearestJSON)
	r.GET("/api/catalog", s.catalogSummary)
	r.GET("/api/catalog/coverage", s.catalogCoverage)
	r.POST("/api/catalog/reload", s.reloadCatalog)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Printf("🌱 Agrovet locator listening on %s", addr)

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Shutting down server...")

	return srv.Shutdown(shutdownCtx)
}

// NearestRequest is accepted both as query parameters and as a JSON body.
type NearestRequest struct {
	Latitude      *float64 `form:"lat" json:"latitude" binding:"required"`
	Longitude     *float64 `form:"lng" json:"longitude" binding:"required"`
	TopK          int      `form:"top_k" json:"top_k" binding:"gte=0"`
	MaxDistanceKm float64  `form:"max_distance_km" json:"max_distance_km" binding:"gte=0"`
}

type UserLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type NearestResponse struct {
	QueryID         string                   `json:"query_id"`
	UserLocation    UserLocation             `json:"user_location"`
	NearestAgrovets []locator.RankedSupplier `json:"nearest_agrovets"`
	SearchRadiusKm  float64                  `json:"search_radius_km"`
	Timestamp       string                   `json:"timestamp"`
	Message         string                   `json:"message,omitempty"`
}

func (s *Server) health(ctx *gin.Context) {
	c := s.locator.Catalog()
	if c == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "uninitialized"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "suppliers": c.Len()})
}

func (s *Server) nearestQuery(ctx *gin.Context) {
	var req NearestRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.nearest(ctx, req)
}

func (s *Server) nearestJSON(ctx *gin.Context) {
	var req NearestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.nearest(ctx, req)
}

func (s *Server) nearest(ctx *gin.Context, req NearestRequest) {
	res, err := s.locator.Search(locator.SearchRequest{
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		TopK:          req.TopK,
		MaxDistanceKm: req.MaxDistanceKm,
	})
	if err != nil {
		s.fail(ctx, err)

		return
	}

	resp := NearestResponse{
		QueryID: uuid.New().String(),
		UserLocation: UserLocation{
			Latitude:  res.Location.Lat,
			Longitude: res.Location.Lng,
		},
		NearestAgrovets: res.Suppliers,
		SearchRadiusKm:  res.RadiusKm,
		Timestamp:       res.Timestamp.Format(time.RFC3339),
	}

	if len(res.Suppliers) == 0 {
		resp.Message = fmt.Sprintf("no agrovets found within %s km", strconv.FormatFloat(res.RadiusKm, 'f', -1, 64))
	}

	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) catalogSummary(ctx *gin.Context) {
	c := s.locator.Catalog()
	if c == nil {
		s.fail(ctx, &locator.Error{Type: locator.ErrorTypeUninitialized, Message: "supplier catalog is not loaded"})

		return
	}

	ctx.JSON(http.StatusOK, c.Report())
}

func (s *Server) catalogCoverage(ctx *gin.Context) {
	res := 5

	if v := ctx.Query("res"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "res must be an integer"})

			return
		}

		res = n
	}

	cells, err := locator.Coverage(s.locator.Catalog(), res)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"resolution": res, "cells": cells})
}

func (s *Server) reloadCatalog(ctx *gin.Context) {
	if s.load == nil {
		ctx.JSON(http.StatusNotImplemented, gin.H{"error": "reload is not configured"})

		return
	}

	c, err := s.locator.Reload(s.load)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"source": c.Source(), "suppliers": c.Len()})
}

// fail maps locator error kinds to HTTP status codes.
func (s *Server) fail(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case locator.IsInvalidLocation(err), locator.IsInvalidQuery(err):
		status = http.StatusBadRequest
	case locator.IsUninitialized(err), locator.IsDataUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}
