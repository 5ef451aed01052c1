package oidc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("oidc.tokens.default", []byte(`{"a":1}`)))
	got, ok, err := s.Get("oidc.tokens.default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))

	require.NoError(t, s.Delete("oidc.tokens.default"))
	require.NoError(t, s.Delete("oidc.tokens.default"))
	_, ok, err = s.Get("oidc.tokens.default")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	s, err := NewFileStorage(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestFileStoragePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	s, err := NewFileStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("oidc.tokens.default", []byte("{}")))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	info, err = os.Stat(s.Path("oidc.tokens.default"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoragePathSanitisesKeys(t *testing.T) {
	s := &FileStorage{dir: "/state"}
	assert.Equal(t, filepath.Join("/state", "oidc.tokens.https___idp_example.json"), s.Path("oidc.tokens.https://idp/example"))
}
