// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"strings"

	"github.com/agrosoil/agrovet/utils"
)

// Field is a canonical supplier column.
type Field string

const (
	FieldName      Field = "name"
	FieldLatitude  Field = "latitude"
	FieldLongitude Field = "longitude"
	FieldProducts  Field = "products"
	FieldPrices    Field = "prices"
)

type columnRule struct {
	field    Field
	contains []string
}

// columnRules are evaluated in order for every header; the first rule whose
// substring appears in the normalized header claims the column.
var columnRules = []columnRule{
	{field: FieldName, contains: []string{"name"}},
	{field: FieldLatitude, contains: []string{"lat"}},
	{field: FieldLongitude, contains: []string{"lon", "lng"}},
	{field: FieldProducts, contains: []string{"product"}},
	{field: FieldPrices, contains: []string{"price"}},
}

// columnMap is the result of matching a header row: field -> column index.
type columnMap struct {
	index   map[Field]int
	headers map[Field]string
	ignored []string
}

func normalizeHeader(h string) string {
	// Spreadsheets exported from Windows tools often carry a BOM on the first cell
	return utils.FoldHeader(strings.TrimPrefix(h, "\ufeff"))
}

func matchField(normalized string) (Field, bool) {
	for _, rule := range columnRules {
		for _, needle := range rule.contains {
			if strings.Contains(normalized, needle) {
				return rule.field, true
			}
		}
	}

	return "", false
}

// resolveColumns binds every canonical field to the first header, by column
// order, that matches it.
func resolveColumns(header []string) columnMap {
	m := columnMap{
		index:   make(map[Field]int),
		headers: make(map[Field]string),
	}

	for i, h := range header {
		field, ok := matchField(normalizeHeader(h))
		if !ok {
			continue
		}

		if _, bound := m.index[field]; bound {
			m.ignored = append(m.ignored, h)

			continue
		}

		m.index[field] = i
		m.headers[field] = h
	}

	return m
}

func (m columnMap) has(f Field) bool {
	_, ok := m.index[f]

	return ok
}

// cell returns the trimmed value of field f in row, or "" when the column is
// unbound or the row is short.
func (m columnMap) cell(row []string, f Field) string {
	i, ok := m.index[f]
	if !ok || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}
