// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils builds the HTTP client used to fetch remote supplier
// catalogs.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// ClientOptions configure NewClient.
type ClientOptions struct {
	// UserAgent defaults to "agrovet/unknown".
	UserAgent string
	// Trace, when not nil, receives a dump of every request and response.
	Trace io.Writer
	// TraceBody includes response bodies in the dump.
	TraceBody bool
	// Timeout of a whole request. Defaults to 60s.
	Timeout time.Duration
}

// NewClient returns a client that identifies itself and optionally traces
// its traffic.
func NewClient(opts ClientOptions) *http.Client {
	userAgent := "agrovet/unknown"
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &AppendRequestHeadersRoundTripper{
			Headers: map[string]string{
				"User-Agent": userAgent,
				"Accept":     "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*",
			},
			Transport: &LoggingRoundTripper{
				Writer:    opts.Trace,
				DumpBody:  opts.TraceBody,
				Transport: transport,
			},
		},
	}
}

// LoggingRoundTripper dumps every HTTP transaction to Writer. A nil Writer
// disables it.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// abbreviate prefixes every line and caps their number and width.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return lines
}

func (t *LoggingRoundTripper) dump(dump []byte, prefix rune) error {
	lines := abbreviate(strings.Split(string(dump), "\n"), prefix)
	lines = append(lines, "")

	_, err := fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	if err := t.dump(dump, '>'); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		_, _ = fmt.Fprintf(t.Writer, "< ERROR: [%v] %v\n", time.Since(start), err)

		return nil, err
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", time.Since(start)); err != nil {
		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	if err := t.dump(dump, '<'); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper sets Headers on every request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}
