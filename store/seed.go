// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/agrosoil/agrovet/locator"
)

// SeedVersion is written to every exported seed file.
const SeedVersion = "1.0"

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string           `json:"version"`
	LastUpdated time.Time        `json:"last_updated"`
	Suppliers   []locator.Record `json:"suppliers"`
}

// ExportToJSON exports all stored suppliers to a JSON file and returns how
// many were written.
func ExportToJSON(repo SupplierRepository, filepath string) (int, error) {
	suppliers, err := repo.List()
	if err != nil {
		return 0, fmt.Errorf("listing suppliers: %w", err)
	}

	if suppliers == nil {
		suppliers = []locator.Record{}
	}

	seed := &SeedData{
		Version:     SeedVersion,
		LastUpdated: time.Now().UTC(),
		Suppliers:   suppliers,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(suppliers), nil
}

// ImportFromJSON appends the suppliers of a JSON seed file to the repository.
// Suppliers with invalid coordinates abort the import before anything is
// written.
func ImportFromJSON(repo SupplierRepository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	if err := repo.BulkInsert(seed.Suppliers, nil); err != nil {
		return 0, fmt.Errorf("saving suppliers: %w", err)
	}

	return len(seed.Suppliers), nil
}

// SeedIfEmpty seeds the database from a JSON file if no suppliers exist.
func SeedIfEmpty(repo SupplierRepository, filepath string) (bool, int, error) {
	count, err := repo.Count()
	if err != nil {
		return false, 0, fmt.Errorf("counting suppliers: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}

	if _, err := os.Stat(filepath); errors.Is(err, os.ErrNotExist) {
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
