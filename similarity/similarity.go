// Package similarity implements the cosine-similarity kernel used for
// 1:1 verification and 1:N identification against a candidate embedding
// set.
package similarity

// Cosine returns the dot product of a and b, clamped to [-1, 1]. For
// L2-normalized vectors this is exactly their cosine similarity; inputs
// are not normalized here. Returns 0 if the vectors differ in length or
// are empty.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return float32(dot)
}

// Candidate pairs an identifier with its embedding, for batch search.
type Candidate struct {
	ID        string
	Embedding []float32
}

// Match is the outcome of a 1:N best-match search.
type Match struct {
	Index int // index into the candidate slice, -1 if no candidates
	Score float32
	ID    string
}

// FindBestMatch scores query against every candidate and returns the
// highest-scoring one (the first on ties). Returns Match{Index: -1,
// Score: -1} with an empty ID when candidates is empty.
func FindBestMatch(query []float32, candidates []Candidate) Match {
	best := Match{Index: -1, Score: -1.0}
	for i, c := range candidates {
		score := Cosine(query, c.Embedding)
		if score > best.Score {
			best = Match{Index: i, Score: score, ID: c.ID}
		}
	}
	return best
}
