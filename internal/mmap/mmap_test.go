package mmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Spiritus2424/segstore/internal/mmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("segment store snapshot"), 0o644))

	m, err := mmap.Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []byte("segment store snapshot"), m.Bytes())

	buf := make([]byte, 7)
	n, err := m.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "store s", string(buf))
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := mmap.Open(path)
	require.NoError(t, err)
	assert.Empty(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := mmap.Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	m, err := mmap.Open(path)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}
