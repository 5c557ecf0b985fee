// Package loader reads OpenAPI documents from disk, an fs.FS or HTTP.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options configure a Loader.
type Options struct {
	FileSystem     fs.FS
	HTTPClient     *http.Client
	AllowHTTP      bool
	RequestTimeout time.Duration
	MaxBytes       int64
}

const defaultMaxBytes = 8 << 20

// Loader resolves a location to raw document bytes. Locations starting with
// http:// or https:// are fetched when HTTP is allowed; "fs:" prefixed names
// are read from the configured fs.FS; anything else is a file path.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
	maxBytes  int64
}

// New constructs a Loader from pre-resolved options.
func New(options Options) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTP:
		httpClient = &http.Client{Timeout: timeout}
	}

	maxBytes := options.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
		maxBytes:  maxBytes,
	}
}

// Load fetches the document named by location.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("openapi loader: location is required")
	}

	var (
		data []byte
		err  error
	)
	switch {
	case isURL(location):
		if !l.allowHTTP {
			return nil, errors.New("openapi loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, location, l.timeout, l.maxBytes)
	case strings.HasPrefix(location, "fs:"):
		data, err = loadFromFS(ctx, l.fs, strings.TrimPrefix(location, "fs:"))
	default:
		data, err = loadFile(ctx, location)
	}
	if err != nil {
		return nil, fmt.Errorf("openapi loader: %s: %w", location, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi loader: %s is empty", location)
	}
	return data, nil
}

func isURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
