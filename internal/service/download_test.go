package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/cutout/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d := NewDownloader(dir, false, log.NullLogger())

	path, err := d.Save("cat_no_bg.png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cat_no_bg.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloader_SuffixesExistingNames(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(dir, false, log.NullLogger())

	first, err := d.Save(BatchArchiveName, []byte("1"))
	require.NoError(t, err)
	second, err := d.Save(BatchArchiveName, []byte("2"))
	require.NoError(t, err)
	third, err := d.Save(BatchArchiveName, []byte("3"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "processed_images.zip"), first)
	assert.Equal(t, filepath.Join(dir, "processed_images (1).zip"), second)
	assert.Equal(t, filepath.Join(dir, "processed_images (2).zip"), third)
}

func TestDownloader_Overwrite(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(dir, true, log.NullLogger())

	_, err := d.Save("cat_no_bg.png", []byte("old"))
	require.NoError(t, err)
	path, err := d.Save("cat_no_bg.png", []byte("new"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cat_no_bg.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestDownloader_SetDir(t *testing.T) {
	d := NewDownloader("", false, nil)
	assert.Equal(t, ".", d.Dir())

	dir := t.TempDir()
	d.SetDir(dir)
	assert.Equal(t, dir, d.Dir())

	path, err := d.Save("x_no_bg.png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
