// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/agrosoil/agrovet/locator"
	"github.com/agrosoil/agrovet/utils"
)

// CellResolution is the H3 resolution stored alongside every supplier.
const CellResolution = 7

// SupplierRepository handles persistence of supplier records.
type SupplierRepository interface {
	// CreateSchema creates the suppliers table
	CreateSchema() error

	// BulkInsert inserts records in a single transaction. progress, if not
	// nil, is called once per inserted record.
	BulkInsert(records []locator.Record, progress func()) error

	// List returns all suppliers in insertion order
	List() ([]locator.Record, error)

	// Count returns the total number of suppliers
	Count() (int, error)

	// Clear removes every supplier
	Clear() error

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlSupplierRepository struct {
	db *sql.DB
}

// NewSupplierRepository creates a new supplier repository.
func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &sqlSupplierRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlSupplierRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlSupplierRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS suppliers_seq START 1;

		CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY DEFAULT nextval('suppliers_seq'),
			name VARCHAR NOT NULL,
			point STRUCT(x DOUBLE, y DOUBLE) NOT NULL,
			products VARCHAR[] NOT NULL,
			prices DOUBLE[] NOT NULL,
			source_line INTEGER,
			h3_res7 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (r *sqlSupplierRepository) BulkInsert(records []locator.Record, progress func()) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// lists travel as comma separated text and are split server side
	stmt, err := tx.Prepare(`
		INSERT INTO suppliers(name, point, products, prices, source_line, h3_res7)
		VALUES (
			?,
			struct_pack(x := CAST(? AS DOUBLE), y := CAST(? AS DOUBLE)), -- (lng, lat)
			list_filter(string_split(CAST(? AS VARCHAR), ','), p -> p <> ''),
			list_transform(list_filter(string_split(CAST(? AS VARCHAR), ','), p -> p <> ''), p -> CAST(p AS DOUBLE)),
			?,
			?
		)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if err := rec.Point.Validate(); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("supplier %q: %w", rec.Name, err)
		}

		cell, err := rec.Point.Cell(CellResolution)
		if err != nil {
			_ = tx.Rollback()

			return err
		}

		line := sql.NullInt64{Int64: int64(rec.Line), Valid: rec.Line > 0}

		if _, err := stmt.Exec(
			rec.Name,
			rec.Point.Lng,
			rec.Point.Lat,
			joinProducts(rec.Products),
			joinPrices(rec.Prices),
			line,
			int64(cell),
		); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("inserting supplier %q: %w", rec.Name, err)
		}

		if progress != nil {
			progress()
		}
	}

	return tx.Commit()
}

func (r *sqlSupplierRepository) List() ([]locator.Record, error) {
	rows, err := r.db.Query(`
		SELECT name, point, products, prices, source_line
		FROM suppliers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []locator.Record

	for rows.Next() {
		var (
			rec      locator.Record
			products any
			prices   any
			line     sql.NullInt64
		)

		if err := rows.Scan(&rec.Name, &rec.Point, &products, &prices, &line); err != nil {
			return nil, err
		}

		var ok bool

		if rec.Products, ok = utils.StringList(products); !ok {
			return nil, fmt.Errorf("supplier %q: unexpected products type %T", rec.Name, products)
		}

		if rec.Prices, ok = utils.FloatList(prices); !ok {
			return nil, fmt.Errorf("supplier %q: unexpected prices type %T", rec.Name, prices)
		}

		if line.Valid {
			rec.Line = int(line.Int64)
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *sqlSupplierRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM suppliers`).Scan(&count)

	return count, err
}

func (r *sqlSupplierRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM suppliers`)

	return err
}

// LoadCatalog builds a catalog from every stored supplier.
func LoadCatalog(repo SupplierRepository, source string, opts locator.Options) (*locator.Catalog, error) {
	records, err := repo.List()
	if err != nil {
		return nil, &locator.Error{
			Type:    locator.ErrorTypeDataUnavailable,
			Message: "listing stored suppliers",
			Err:     err,
		}
	}

	return locator.NewCatalog(source, records, opts)
}

func joinProducts(products []string) string {
	cleaned := make([]string, 0, len(products))

	for _, p := range products {
		// a comma would split the product in two on the way in
		if p = strings.TrimSpace(strings.ReplaceAll(p, ",", " ")); p != "" {
			cleaned = append(cleaned, p)
		}
	}

	return strings.Join(cleaned, ",")
}

func joinPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}

	return strings.Join(parts, ",")
}

