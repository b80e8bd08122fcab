package blobstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesFileWithRandomPrefix(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	stored, err := store.Save("poster.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, "_poster.png"))

	data, err := os.ReadFile(filepath.Join(dir, stored))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestSaveSameNameNeverCollides(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save("list.csv", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save("list.csv", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveStripsClientPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	stored, err := store.Save("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, stored, "..")
	_, err = os.Stat(filepath.Join(dir, stored))
	require.NoError(t, err)
}

func TestAllowedExtensions(t *testing.T) {
	assert.True(t, AllowedImage("a.PNG"))
	assert.True(t, AllowedImage("a.jpg"))
	assert.True(t, AllowedImage("a.jpeg"))
	assert.False(t, AllowedImage("a.gif"))
	assert.False(t, AllowedImage("a"))

	assert.True(t, AllowedCSV("invitees.CSV"))
	assert.False(t, AllowedCSV("invitees.txt"))
}
