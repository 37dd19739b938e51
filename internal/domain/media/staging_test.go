package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageWritesContentAndKeepsExtension(t *testing.T) {
	dir := t.TempDir()
	stager := NewStager(dir, zerolog.Nop())

	path, err := stager.Stage(UploadRequest{
		Filename: "movie.mp4",
		Content:  strings.NewReader("raw bytes"),
		Size:     9,
	})
	require.NoError(t, err)
	assert.Equal(t, ".mp4", filepath.Ext(path))
	assert.Equal(t, dir, filepath.Dir(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(body))
}

func TestStageUniquePaths(t *testing.T) {
	stager := NewStager(t.TempDir(), zerolog.Nop())

	first, err := stager.Stage(UploadRequest{Filename: "a.mp4", Content: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)
	second, err := stager.Stage(UploadRequest{Filename: "a.mp4", Content: strings.NewReader("y"), Size: 1})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestReleaseRemovesFile(t *testing.T) {
	stager := NewStager(t.TempDir(), zerolog.Nop())

	path, err := stager.Stage(UploadRequest{Filename: "a.mp4", Content: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)

	stager.Release(path)
	assert.NoFileExists(t, path)

	// Releasing again, or releasing nothing, is harmless.
	stager.Release(path)
	stager.Release("")
}

func TestReleaseDirRemovesTree(t *testing.T) {
	base := t.TempDir()
	stager := NewStager(base, zerolog.Nop())

	dir := filepath.Join(base, "hls_output", "run")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seg0000.ts"), []byte("x"), 0o644))

	stager.ReleaseDir(dir)
	assert.NoDirExists(t, dir)
	stager.ReleaseDir("")
}
