package memory

import (
	"math"
	"sort"
)

// Vector is an indexed embedding: the ID of the memo it belongs to and the
// vector itself.
type Vector struct {
	ID        string
	Embedding []float32
}

// Hit is a search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// CosineSimilarity computes cosine similarity between two vectors.
// The result is in [-1, 1]; mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push parallel vectors a hair past the bounds.
	return math.Max(-1, math.Min(1, sim))
}

// Search scores every candidate against query and returns the top k by
// descending similarity. Candidates must be given in insertion order: equal
// scores keep that order, so the earlier memo wins ties. k <= 0 returns all.
func Search(query []float32, candidates []Vector, k int) []Hit {
	hits := make([]Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = Hit{ID: c.ID, Score: CosineSimilarity(query, c.Embedding)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Normalize converts embedding to unit vector.
func Normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / norm)
	}

	return normalized
}
