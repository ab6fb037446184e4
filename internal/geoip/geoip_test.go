package geoip

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/nadir/internal/models"
)

func TestEnsureDB_DownloadsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("mmdb"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "country.mmdb")
	require.NoError(t, EnsureDB(path, srv.URL, time.Hour))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mmdb", string(content))
}

func TestEnsureDB_KeepsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "country.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("cached"), 0o600))

	require.NoError(t, EnsureDB(path, "http://127.0.0.1:0/unreachable", time.Hour))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(content))
}

func TestEnsureDB_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "country.mmdb")
	assert.Error(t, EnsureDB(path, srv.URL, time.Hour))
	assert.NoFileExists(t, path)
}

func TestLocate_NilProvider(t *testing.T) {
	var p *Provider
	assert.Nil(t, p.Locate("8.8.8.8", models.GeoRecord{}))
}

func TestOpen_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}
