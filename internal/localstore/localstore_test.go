package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTemp(t)

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("k", []byte("v1")))
	got, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	// overwrite
	require.NoError(t, store.Put("k", []byte("v2")))
	got, _, err = store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Delete("k"))
	_, ok, err = store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting an absent key is a no-op
	require.NoError(t, store.Delete("k"))
}

func TestStoreJSON(t *testing.T) {
	store := openTemp(t)

	type blob struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var out blob
	ok, err := store.GetJSON("b", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.PutJSON("b", blob{Name: "x", Count: 3}))
	ok, err = store.GetJSON("b", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, blob{Name: "x", Count: 3}, out)
}

func TestStoreValueColumnIsText(t *testing.T) {
	store := openTemp(t)

	rows, err := store.db.Query(`PRAGMA table_info(kv)`)
	require.NoError(t, err)
	defer rows.Close()

	types := map[string]string{}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			defaultVal interface{}
			pk         int
		)
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notnull, &defaultVal, &pk))
		types[name] = typ
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, "TEXT", types["key"])
	assert.Equal(t, "TEXT", types["value"])
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Put("k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := second.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
