// Package fetch provides the byte sources the viewer loads served assets
// from.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ModelsDir is the path segment assets are served under.
const ModelsDir = "models"

// MaxAssetSize caps how much a single fetch will read.
const MaxAssetSize = 1 << 30

var (
	// ErrNotFound is returned when the source has no such asset.
	ErrNotFound = errors.New("asset not found")
	// ErrTooLarge is returned when an asset exceeds MaxAssetSize.
	ErrTooLarge = errors.New("asset too large")
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTP fetches assets with plain GET requests from BaseURL/models/<filename>.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP returns an HTTP fetcher for baseURL with a default client.
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// URL returns the address filename is fetched from.
func (h *HTTP) URL(filename string) (string, error) {
	base, err := url.Parse(h.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("base url %q: unsupported scheme %q", h.BaseURL, base.Scheme)
	}
	base.Path = path.Join("/", base.Path, ModelsDir, filename)
	return base.String(), nil
}

// Fetch downloads filename.
func (h *HTTP) Fetch(ctx context.Context, filename string) ([]byte, error) {
	u, err := h.URL(filename)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > MaxAssetSize {
		return nil, fmt.Errorf("%s: %w", u, ErrTooLarge)
	}
	return readLimited(resp.Body, u)
}

// Dir serves assets from a local directory, laid out the same way as the
// HTTP source (Root/models/<filename>) unless Flat is set.
type Dir struct {
	Root string
	Flat bool
}

// Path returns the local path for filename. Names that would escape Root
// are rejected.
func (d Dir) Path(filename string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(filename))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid asset name %q", filename)
	}
	if d.Flat {
		return filepath.Join(d.Root, clean), nil
	}
	return filepath.Join(d.Root, ModelsDir, clean), nil
}

// Fetch reads filename from disk.
func (d Dir) Fetch(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.Path(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return readLimited(f, p)
}

func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > MaxAssetSize {
		return nil, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	return data, nil
}
