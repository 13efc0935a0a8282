package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileStoreRoundTrip tests that saved values survive a reload
func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "beat-index.json")

	s := NewFileStore(path)
	require.NoError(t, s.Set("beats", []string{"a", "b"}))
	require.NoError(t, s.Set("folders", []string{"/beats"}))
	require.NoError(t, s.Save())

	reloaded := NewFileStore(path)
	var beats []string
	found, err := reloaded.Get("beats", &beats)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, beats)

	var folders []string
	found, err = reloaded.Get("folders", &folders)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"/beats"}, folders)
}

// TestFileStoreMissingKey tests the absent-key signal
func TestFileStoreMissingKey(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "beat-index.json"))

	var out []string
	found, err := s.Get("beats", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

// TestFileStoreCorruptFile tests that an unparseable document degrades to an
// empty store instead of failing every read
func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat-index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewFileStore(path)
	var out []string
	found, err := s.Get("beats", &out)
	require.NoError(t, err)
	assert.False(t, found)

	// The next save rewrites the document cleanly.
	require.NoError(t, s.Set("beats", []string{"a"}))
	require.NoError(t, s.Save())

	reloaded := NewFileStore(path)
	found, err = reloaded.Get("beats", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a"}, out)
}

// TestFileStoreTypeMismatch tests decode errors on read
func TestFileStoreTypeMismatch(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "beat-index.json"))
	require.NoError(t, s.Set("beats", "not an array"))

	var out []string
	_, err := s.Get("beats", &out)
	assert.Error(t, err)
}

// TestMemoryStore tests the in-memory implementation used by tests
func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	var out []int
	found, err := s.Get("numbers", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("numbers", []int{1, 2, 3}))
	found, err = s.Get("numbers", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2, 3}, out)

	assert.Equal(t, 0, s.SaveCount())
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())
	assert.Equal(t, 2, s.SaveCount())
}
