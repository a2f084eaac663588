package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	return NewHTTPFetcher(logr.Discard(), append([]HTTPOption{WithRetries(2, time.Millisecond, 5*time.Millisecond)}, opts...)...)
}

func TestHTTPFetcher_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("-----BEGIN PGP PUBLIC KEY BLOCK-----"))
	}))
	defer srv.Close()

	data, err := newTestHTTPFetcher().Fetch(context.Background(), srv.URL+"/gpg")
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN PGP PUBLIC KEY BLOCK-----", string(data))
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := newTestHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPFetcher_GivesUp(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load(), "initial attempt plus two retries")
}

func TestHTTPFetcher_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestHTTPFetcher().Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPFetcher_TooLarge(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := newTestHTTPFetcher(WithMaxBytes(16)).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	t.Parallel()
	_, err := newTestHTTPFetcher().Fetch(context.Background(), "http://[::1]:namedport")
	assert.Error(t, err)
}
