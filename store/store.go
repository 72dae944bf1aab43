// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists supplier catalogs in DuckDB and moves them in and
// out of JSON seed files.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver
)

// DatabaseFile is the name of the DuckDB file inside the database directory.
const DatabaseFile = "agrovet.duckdb"

// Path returns the database file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, DatabaseFile)
}

// Open opens (creating if needed) the database in dir and makes sure the
// schema exists. An empty dir opens an in-memory database.
func Open(dir string) (*sql.DB, SupplierRepository, error) {
	dsn := ""
	if dir != "" {
		dsn = Path(dir)
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := NewSupplierRepository(db)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}
