package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	missing, err := s.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "miss is (nil, nil), not an error")

	require.NoError(t, s.Set("k", []byte(`{"a":1}`)))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	require.NoError(t, s.Set("k", []byte(`{"a":2}`)))
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), got, "set overwrites")

	require.NoError(t, s.Delete("k"))
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, s.Delete("k"), "delete is idempotent")
	assert.NoError(t, s.ApplyMigrations("unused"))
	assert.NoError(t, s.Close())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()

	value := []byte("original")
	require.NoError(t, s.Set("k", value))
	value[0] = 'X'

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "caller mutations never reach the store")

	got[0] = 'Y'
	again, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestReadJSON(t *testing.T) {
	s := NewMemoryStore()

	var out []int
	require.NoError(t, ReadJSON(s, "k", &out))
	assert.Nil(t, out, "absent key leaves the target untouched")

	require.NoError(t, WriteJSON(s, "k", []int{1, 2, 3}))
	require.NoError(t, ReadJSON(s, "k", &out))
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestReadJSON_CorruptValue(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set("k", []byte("{broken")))

	var out []int
	require.NoError(t, ReadJSON(s, "k", &out), "corrupt state reads as empty")
	assert.Nil(t, out)
}
