package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEmbedding_RoundTrips(t *testing.T) {
	v := []float32{0.125, -0.5, 1.0, -1.0, 0.0, 3.14159}
	encoded := encodeEmbedding(v)
	decoded := decodeEmbedding(encoded, len(v))
	for i := range v {
		assert.InDelta(t, v[i], decoded[i], 1e-6)
	}
}

func TestDecodeEmbedding_TruncatedBufferPadsWithZero(t *testing.T) {
	v := []float32{1, 2, 3}
	encoded := encodeEmbedding(v)
	decoded := decodeEmbedding(encoded[:4], 3) // only first float survives
	assert.InDelta(t, 1.0, decoded[0], 1e-6)
	assert.Equal(t, float32(0), decoded[1])
	assert.Equal(t, float32(0), decoded[2])
}

func TestSQLiteStore_SaveLoadRemoveRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "speakers.db")
	st, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer st.Close()

	p := Profile{ID: "alice", Embedding: []float32{0.1, 0.2, 0.3}, EnrollCount: 1}
	require.NoError(t, st.Save(p))

	loaded, ok, err := st.Load("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", loaded.ID)
	assert.Equal(t, 3, len(loaded.Embedding))
	assert.InDelta(t, 0.2, loaded.Embedding[1], 1e-6)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, st.Remove("alice"))
	_, ok, err = st.Load("alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_LoadMissingSpeaker(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "speakers.db")
	st, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer st.Close()

	_, ok, err := st.Load("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_RemoveMissingSpeakerErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "speakers.db")
	st, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.Error(t, st.Remove("nobody"))
}

func TestSQLiteStore_LoadAllReturnsEverySavedProfile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "speakers.db")
	st, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Save(Profile{ID: "a", Embedding: []float32{1}, EnrollCount: 1}))
	require.NoError(t, st.Save(Profile{ID: "b", Embedding: []float32{2}, EnrollCount: 1}))

	all, err := st.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
