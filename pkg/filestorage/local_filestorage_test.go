package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalFileStorage(dir)
	require.NoError(t, err)

	url, err := storage.Save(strings.NewReader("jpeg-bytes"), "Placa.JPG", "research")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/research/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	onDisk := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, PublicPrefix)))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, storage.Delete(url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.Delete(url), "deleting twice is fine")
}

func TestDeleteRejectsTraversal(t *testing.T) {
	storage, err := NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, storage.Delete("/uploads/../../etc/passwd"))
}
