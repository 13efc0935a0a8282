package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizePath tests path canonicalization for reconciliation keys
func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "windows separators become forward slashes",
			path:     `C:\Beats\Trap\dark melody.mp3`,
			expected: "c:/beats/trap/dark melody.mp3",
		},
		{
			name:     "unix path is only lowercased",
			path:     "/Users/Producer/Beats/Dark Melody.mp3",
			expected: "/users/producer/beats/dark melody.mp3",
		},
		{
			name:     "mixed separators",
			path:     `C:\Beats/Trap\file.wav`,
			expected: "c:/beats/trap/file.wav",
		},
		{
			name:     "already normalized",
			path:     "/beats/file.flac",
			expected: "/beats/file.flac",
		},
		{
			name:     "empty path",
			path:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.path))
		})
	}
}

// TestNormalizePathEquivalence verifies that the same file referenced with
// different separator and case conventions maps to one reconciliation key
func TestNormalizePathEquivalence(t *testing.T) {
	a := NormalizePath(`C:\Beats\Song.mp3`)
	b := NormalizePath("c:/beats/song.MP3")
	assert.Equal(t, a, b)
}

// TestInFolders tests folder membership via normalized prefix matching
func TestInFolders(t *testing.T) {
	folders := []string{`C:\Beats`, "/home/producer/music"}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "inside windows folder with different case",
			path:     "c:/beats/trap/song.mp3",
			expected: true,
		},
		{
			name:     "inside unix folder",
			path:     "/home/producer/Music/loops/kick.wav",
			expected: true,
		},
		{
			name:     "outside all folders",
			path:     "/tmp/song.mp3",
			expected: false,
		},
		{
			name:     "empty folder list",
			path:     "/home/producer/music/song.mp3",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := folders
			if tt.name == "empty folder list" {
				fs = nil
			}
			assert.Equal(t, tt.expected, InFolders(tt.path, fs))
		})
	}
}
