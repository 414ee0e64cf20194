package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine_IdenticalVectors(t *testing.T) {
	v := []float32{0.6, 0.8}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
}

func TestCosine_OrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, Cosine(a, b), 1e-6)
}

func TestCosine_MismatchedLengthReturnsZero(t *testing.T) {
	assert.Equal(t, float32(0), Cosine([]float32{1, 2}, []float32{1}))
}

func TestFindBestMatch_PicksHighestScoring(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "alice", Embedding: []float32{0, 1}},
		{ID: "bob", Embedding: []float32{1, 0}},
		{ID: "carol", Embedding: []float32{0.7, 0.3}},
	}

	match := FindBestMatch(query, candidates)
	assert.Equal(t, "bob", match.ID)
	assert.Equal(t, 1, match.Index)
	assert.InDelta(t, 1.0, match.Score, 1e-6)
}

func TestFindBestMatch_EmptyCandidates(t *testing.T) {
	match := FindBestMatch([]float32{1, 0}, nil)
	assert.Equal(t, -1, match.Index)
	assert.Equal(t, "", match.ID)
}
