package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	tmpDir := t.TempDir()
	c, err := Open(filepath.Join(tmpDir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalogSaveLoadModel(t *testing.T) {
	c := openTestCatalog(t)
	m := Model{Name: "crate", Object: sampleObject(), FaceIDs: []int{1, 2}}

	require.NoError(t, c.SaveModel(m))

	got, err := c.LoadModel("crate")
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestCatalogSaveModelNameTaken(t *testing.T) {
	c := openTestCatalog(t)
	m := Model{Name: "crate", Object: sampleObject()}

	require.NoError(t, c.SaveModel(m))
	err := c.SaveModel(m)
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestCatalogLoadModelNotFound(t *testing.T) {
	c := openTestCatalog(t)

	_, err := c.LoadModel("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogSaveLoadObject(t *testing.T) {
	c := openTestCatalog(t)
	o := sampleObject()

	require.NoError(t, c.SaveObject("scan-1", o))

	got, err := c.LoadObject("scan-1")
	require.NoError(t, err)
	require.Equal(t, o, got)
}

func TestCatalogLoadObjectWrongKind(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveObject("scan-1", sampleObject()))

	_, err := c.LoadModel("scan-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogDiscard(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveObject("scan-1", sampleObject()))

	require.NoError(t, c.Discard("scan-1"))

	_, err := c.LoadObject("scan-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogDiscardNotFound(t *testing.T) {
	c := openTestCatalog(t)

	err := c.Discard("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogList(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveObject("alpha", sampleObject()))
	require.NoError(t, c.SaveModel(Model{Name: "beta", Object: sampleObject()}))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "alpha", entries[0].Name)
	require.Equal(t, KindObject, entries[0].Kind)
	require.Equal(t, "beta", entries[1].Name)
	require.Equal(t, KindModel, entries[1].Kind)
}
