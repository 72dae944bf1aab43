// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldHeader reduces a column header or label to its comparable form:
// trimmed, lowercase and without diacritics ("  Látitud " becomes "latitud").
func FoldHeader(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(stripMarks, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}

	return folded
}

// SplitList splits a comma separated cell, trimming every entry and dropping
// the empty ones. Order is preserved.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		out = append(out, part)
	}

	return out
}

// StringList converts a DuckDB VARCHAR[] value to a []string. NULL is an
// empty list; anything that is not a list of strings reports false.
func StringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case nil:
		return nil, true
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))

		for _, e := range list {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}

			out = append(out, str)
		}

		return out, true
	default:
		return nil, false
	}
}

// FloatList converts a DuckDB DOUBLE[] value, which the driver returns as
// []any, to a []float64.
func FloatList(v any) ([]float64, bool) {
	switch list := v.(type) {
	case nil:
		return nil, true
	case []float64:
		return list, true
	case []any:
		out := make([]float64, 0, len(list))

		for _, e := range list {
			switch f := e.(type) {
			case float64:
				out = append(out, f)
			case float32:
				out = append(out, float64(f))
			case int64:
				out = append(out, float64(f))
			default:
				return nil, false
			}
		}

		return out, true
	default:
		return nil, false
	}
}

// FormatInt renders counts for CLI output with thousands separators.
func FormatInt(n int64) string {
	digits := strconv.FormatInt(n, 10)

	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder

	b.WriteString(sign)

	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(d)
	}

	return b.String()
}
