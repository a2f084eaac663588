// Package fetch downloads small artifacts such as apt signing keys over
// HTTP(S) or from S3-compatible object storage.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// DefaultMaxBytes caps the size of a fetched artifact.
const DefaultMaxBytes = 16 << 20

var (
	// ErrNotFound is returned when the artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrUnsupportedScheme is returned by Mux for URLs it cannot route.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrTooLarge is returned when an artifact exceeds the size cap.
	ErrTooLarge = errors.New("artifact too large")
)

// Fetcher retrieves the full contents of the artifact at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Mux routes a URL to the Fetcher registered for its scheme.
type Mux struct {
	fetchers map[string]Fetcher
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{fetchers: map[string]Fetcher{}}
}

// Handle registers f for the given schemes.
func (m *Mux) Handle(f Fetcher, schemes ...string) *Mux {
	for _, s := range schemes {
		m.fetchers[s] = f
	}
	return m
}

func (m *Mux) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	f, ok := m.fetchers[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, rawURL)
}
