// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// IsURL reports whether source names an http(s) resource rather than a file.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LoadURL downloads a supplier catalog with client. The format comes from
// the Content-Type, falling back to the path extension.
func LoadURL(ctx context.Context, client *http.Client, rawURL string, opts Options) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(ErrorTypeDataUnavailable, err, "building request for %s", rawURL)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(ErrorTypeDataUnavailable, err, "fetching supplier source")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return nil, newError(ErrorTypeDataUnavailable, nil, "fetching supplier source %s: %s", rawURL, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")

	return loadReader(rawURL, resp.Body, formatOfResponse(req.URL, contentType), contentType, opts)
}

func formatOfResponse(u *url.URL, contentType string) Format {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mediaType == xlsxMediaType:
			return FormatXLSX
		case mediaType == "text/csv", strings.HasPrefix(mediaType, "text/"):
			return FormatCSV
		}
	}

	return FormatOf(u.Path)
}

// String names the format for logs and errors.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}
