package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "\rshot.png                 [                              ]   0%", progressBar("shot.png", 0))
	assert.Contains(t, progressBar("shot.png", 50), "[===============               ]  50%")
	assert.Contains(t, progressBar("shot.png", 100), "[==============================] 100%")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 24))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}

func TestInspectAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	small := filepath.Join(dir, "small.png")
	for path, size := range map[string]int{good: 720, small: 100} {
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, size, size))))
		require.NoError(t, f.Close())
	}

	entries, rejected := inspectAll([]string{good, small, filepath.Join(dir, "missing.png")})
	assert.Equal(t, 2, rejected)
	require.Len(t, entries, 1)
	assert.Equal(t, "good.png", entries[0].FileName)
}
