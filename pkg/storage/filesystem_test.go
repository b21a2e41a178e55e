package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteJSON("grids/junior.json", document{Name: "junior", Count: 3}))

	var got document
	require.NoError(t, store.ReadJSON("grids/junior.json", &got))
	assert.Equal(t, document{Name: "junior", Count: 3}, got)

	require.NoError(t, store.WriteJSON("grids/junior.json", document{Name: "junior", Count: 4}))
	require.NoError(t, store.ReadJSON("grids/junior.json", &got))
	assert.Equal(t, 4, got.Count)

	entries, err := os.ReadDir(store.Path("grids"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLocalStorageMissingDocument(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	var got document
	assert.ErrorIs(t, store.ReadJSON("missing.json", &got), ErrNotFound)
	assert.NoError(t, store.Delete("missing.json"))
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.WriteJSON("../outside.json", document{}))
	assert.Error(t, store.WriteJSON("/etc/passwd", document{}))
}
