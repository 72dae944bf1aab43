// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/agrosoil/agrovet/config"
	"github.com/agrosoil/agrovet/locator"
	"github.com/agrosoil/agrovet/store"
	"github.com/agrosoil/agrovet/utils/httputils"
)

// loadCatalog reads the catalog named by c: the --data file or URL when set,
// the database otherwise. With SampleFallback, an unavailable source yields the
// built-in sample instead of an error.
func loadCatalog(c config.Config) (*locator.Catalog, error) {
	catalog, err := loadConfiguredCatalog(c)
	if err == nil {
		return catalog, nil
	}

	if c.SampleFallback && locator.IsDataUnavailable(err) {
		log.Printf("⚠️  %v", err)
		log.Printf("⚠️  Falling back to the %s", locator.SampleSource)

		return locator.Sample(), nil
	}

	return nil, err
}

func loadConfiguredCatalog(c config.Config) (*locator.Catalog, error) {
	opts := c.LoadOptions()

	if locator.IsURL(c.Data) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		return locator.LoadURL(ctx, httpClient(), c.Data, opts)
	}

	if c.Data != "" {
		return locator.Load(c.Data, opts)
	}

	dbpath := store.Path(c.DBPath)
	if _, err := os.Stat(dbpath); err != nil {
		return nil, unavailable(err, "no supplier file given and no database at %s", dbpath)
	}

	db, repo, err := store.Open(c.DBPath)
	if err != nil {
		return nil, unavailable(err, "opening %s", dbpath)
	}
	defer db.Close()

	count, err := repo.Count()
	if err != nil {
		return nil, unavailable(err, "counting suppliers in %s", dbpath)
	}

	if count == 0 {
		return nil, unavailable(nil, "database %s has no suppliers, run 'agrovet catalog import' first", dbpath)
	}

	return store.LoadCatalog(repo, dbpath, opts)
}

func httpClient() *http.Client {
	var trace io.Writer
	if rootOptions.traceHTTP {
		trace = os.Stderr
	}

	return httputils.NewClient(httputils.ClientOptions{
		UserAgent: fmt.Sprintf("agrovet/%s", Version),
		Trace:     trace,
		TraceBody: rootOptions.traceHTTPBody,
	})
}

func unavailable(err error, format string, args ...any) error {
	return &locator.Error{
		Type:    locator.ErrorTypeDataUnavailable,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// openStore opens the database in c.DBPath, creating the directory if needed.
func openStore(c config.Config) (func() error, store.SupplierRepository, error) {
	if err := os.MkdirAll(c.DBPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, repo, err := store.Open(c.DBPath)
	if err != nil {
		return nil, nil, err
	}

	return db.Close, repo, nil
}

var errNoData = errors.New("--data (or AGROVET_DATA) is required")
