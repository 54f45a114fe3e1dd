// Package loader downloads guest payloads over HTTP. It is the external
// collaborator the execution runtime consumes for code retrieval; any
// failure here maps to a fetch-class application error.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coldbrew-labs/runlet/types"
)

// Loader retrieves the raw bytes of a guest payload.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// HTTP is the production Loader backed by a reusable net/http client.
type HTTP struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// HTTPOptions configures an HTTP loader.
type HTTPOptions struct {
	// Timeout bounds one download end to end.
	Timeout time.Duration
	// MaxBytes caps the payload size; larger downloads are rejected.
	MaxBytes int64
	// Logger receives download diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewHTTP returns a Loader with the given limits.
func NewHTTP(opts HTTPOptions) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Load downloads url and returns the payload bytes. Transport failures,
// non-2xx upstream responses, and oversized payloads all come back as
// types.FetchError.
func (l *HTTP) Load(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.FetchError{URL: url, Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, types.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.FetchError{
			URL:    url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("failed to download code: HTTP status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, types.FetchError{URL: url, Err: fmt.Errorf("reading payload: %w", err)}
	}
	if int64(len(body)) > l.maxBytes {
		return nil, types.FetchError{
			URL: url,
			Err: fmt.Errorf("payload exceeds size limit of %d bytes", l.maxBytes),
		}
	}

	l.logger.Debug("downloaded guest payload", "url", url, "size", len(body))
	return body, nil
}
