// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRoundTripper answers with a fixed body and keeps the last request.
type recordingRoundTripper struct {
	lastRequest *http.Request
	body        string
	err         error
}

func (d *recordingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req
	if d.err != nil {
		return nil, d.err
	}

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header),
		ContentLength: int64(len(d.body)),
		Body:          io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	lt := &LoggingRoundTripper{
		Transport: &recordingRoundTripper{body: "name,lat,lon"},
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/agrovets.csv", nil)
	require.NoError(t, err)

	resp, err := lt.RoundTrip(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "name,lat,lon", string(body), "body must still be readable after the dump")

	logContent := logBuffer.String()
	assert.Contains(t, logContent, "> GET /agrovets.csv")
	assert.Contains(t, logContent, "< RESPONSE: [")
	assert.Contains(t, logContent, "< name,lat,lon")
}

func TestLoggingRoundTripperDisabled(t *testing.T) {
	inner := &recordingRoundTripper{}
	lt := &LoggingRoundTripper{Transport: inner}

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, err = lt.RoundTrip(req)
	require.NoError(t, err)
	assert.Same(t, req, inner.lastRequest)
}

func TestLoggingRoundTripperError(t *testing.T) {
	var logBuffer bytes.Buffer

	boom := errors.New("connection refused")
	lt := &LoggingRoundTripper{Transport: &recordingRoundTripper{err: boom}, Writer: &logBuffer}

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, err = lt.RoundTrip(req)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, logBuffer.String(), "< ERROR:")
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	inner := &recordingRoundTripper{}
	atr := &AppendRequestHeadersRoundTripper{
		Transport: inner,
		Headers:   map[string]string{"X-Test-Header": "TestValue"},
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.org", nil)
	require.NoError(t, err)

	_, err = atr.RoundTrip(req)
	require.NoError(t, err)

	require.NotNil(t, inner.lastRequest)
	assert.Equal(t, "TestValue", inner.lastRequest.Header.Get("X-Test-Header"))
	assert.Empty(t, req.Header.Get("X-Test-Header"), "original request must not be modified")
}

func TestNewClient(t *testing.T) {
	var gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var trace bytes.Buffer

	client := NewClient(ClientOptions{UserAgent: "agrovet/test", Trace: &trace})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agrovet/test", gotUA)
	assert.Contains(t, trace.String(), "User-Agent: agrovet/test")

	client = NewClient(ClientOptions{})

	resp2, err := client.Get(srv.URL)
	require.NoError(t, err)

	defer resp2.Body.Close()

	assert.Equal(t, "agrovet/unknown", gotUA)
}
