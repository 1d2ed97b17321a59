package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPURL(t *testing.T) {
	tests := []struct {
		base, file, want string
	}{
		{"https://example.com", "a.splat", "https://example.com/models/a.splat"},
		{"https://example.com/", "a.splat", "https://example.com/models/a.splat"},
		{"https://example.com/viewer", "room-high.ply", "https://example.com/viewer/models/room-high.ply"},
	}
	for _, tt := range tests {
		got, err := NewHTTP(tt.base).URL(tt.file)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NewHTTP("ftp://example.com").URL("a.splat")
	assert.Error(t, err)
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/ok.splat":
			_, _ = w.Write([]byte("payload"))
		case "/models/broken.splat":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL)
	data, err := h.Fetch(context.Background(), "ok.splat")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = h.Fetch(context.Background(), "missing.splat")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.Fetch(context.Background(), "broken.splat")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestHTTPFetchCanceled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTP(srv.URL).Fetch(ctx, "slow.splat")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirFetch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ModelsDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ModelsDir, "a.splat"), []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.obj"), []byte("v 0 0 0"), 0o644))

	data, err := Dir{Root: root}.Fetch(context.Background(), "a.splat")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	data, err = Dir{Root: root, Flat: true}.Fetch(context.Background(), "b.obj")
	require.NoError(t, err)
	assert.Equal(t, "v 0 0 0", string(data))

	_, err = Dir{Root: root}.Fetch(context.Background(), "b.obj")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirRejectsEscape(t *testing.T) {
	d := Dir{Root: t.TempDir()}
	for _, name := range []string{"../secret.splat", "/etc/passwd", ".."} {
		_, err := d.Path(name)
		assert.Error(t, err, name)
	}
}
