// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// Format of a supplier source.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

// FormatOf guesses the format of a source from its file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Load reads a supplier catalog from a CSV or XLSX file.
func Load(path string, opts Options) (*Catalog, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, newError(ErrorTypeDataUnavailable, err, "opening supplier source")
	}
	defer f.Close()

	return LoadReader(path, f, FormatOf(path), opts)
}

// LoadReader reads a supplier catalog from r. name is only used for reporting.
// CSV input that is not valid UTF-8 is decoded as Windows-1252, the usual
// encoding of spreadsheet exports.
func LoadReader(name string, r io.Reader, format Format, opts Options) (*Catalog, error) {
	return loadReader(name, r, format, "text/csv", opts)
}

func loadReader(name string, r io.Reader, format Format, contentType string, opts Options) (*Catalog, error) {
	var (
		rows [][]string
		err  error
	)

	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r, opts.Sheet)
	default:
		rows, err = readCSV(r, opts.Delimiter, contentType)
	}

	if err != nil {
		return nil, newError(ErrorTypeDataUnavailable, err, "reading supplier source %s", name)
	}

	return fromRows(name, rows, opts)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText converts a CSV body to UTF-8. A BOM or a charset in contentType
// decides; otherwise the whole body must be valid UTF-8 to be taken as is,
// and anything else is read as Windows-1252.
func decodeText(data []byte, contentType string) ([]byte, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return data[len(utf8BOM):], nil
	}

	enc, name, certain := charset.DetermineEncoding(data, contentType)

	switch {
	case certain && name == "utf-8":
		return data, nil
	case certain:
	case utf8.Valid(data):
		return data, nil
	default:
		enc = charmap.Windows1252
	}

	return enc.NewDecoder().Bytes(data)
}

func readCSV(r io.Reader, delimiter rune, contentType string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text, err := decodeText(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding text: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	if delimiter != 0 {
		reader.Comma = delimiter
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}

		sheet = sheets[0]
	}

	return f.GetRows(sheet)
}
