// Package vectorindex provides an exact cosine-similarity index for the
// vectors of a single session.
package vectorindex

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"sort"

	"meeting-search/internal/meeting"
)

// cancelCheckInterval is how many vectors are scored between context checks.
const cancelCheckInterval = 1024

// Match is one search hit.
type Match struct {
	ID         string
	Similarity float32
}

// Index stores unit-normalized vectors and answers exact top-k cosine
// queries by scanning. It is not safe for concurrent mutation; callers
// hold the owning session's lock.
type Index struct {
	dim     int
	ids     []string
	vectors [][]float32
	pos     map[string]int
}

// New creates an empty index. Its dimensionality is fixed by the first insert.
func New() *Index {
	return &Index{pos: make(map[string]int)}
}

// Dim returns the established dimensionality, or 0 for an empty index.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *Index) Len() int { return len(ix.ids) }

// Contains reports whether id is stored.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.pos[id]
	return ok
}

// IDs returns the stored ids in storage order.
func (ix *Index) IDs() []string {
	out := make([]string, len(ix.ids))
	copy(out, ix.ids)
	return out
}

// Vector returns a copy of the normalized vector stored for id.
func (ix *Index) Vector(id string) ([]float32, bool) {
	i, ok := ix.pos[id]
	if !ok {
		return nil, false
	}
	out := make([]float32, len(ix.vectors[i]))
	copy(out, ix.vectors[i])
	return out, true
}

// Check validates vec against the index without mutating it.
func (ix *Index) Check(vec []float32) error {
	return Validate(vec, ix.dim)
}

// Validate rejects empty, oversized, non-finite or zero-magnitude vectors,
// and vectors whose length differs from dim when dim is non-zero.
func Validate(vec []float32, dim int) error {
	if len(vec) == 0 {
		return &meeting.ValidationError{Field: "vector", Message: "cannot be empty"}
	}
	if len(vec) > MaxDimension {
		return &meeting.ValidationError{Field: "vector", Message: fmt.Sprintf("exceeds %d dimensions", MaxDimension)}
	}
	if dim > 0 && len(vec) != dim {
		return &meeting.DimensionMismatchError{Expected: dim, Got: len(vec)}
	}
	var norm float64
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &meeting.ValidationError{Field: "vector", Message: "contains NaN or Inf component"}
		}
		norm += f * f
	}
	if norm == 0 {
		return &meeting.ValidationError{Field: "vector", Message: "has zero magnitude"}
	}
	return nil
}

// Insert adds a vector under id, replacing any vector already stored there.
// Invalid vectors are rejected before any state changes.
func (ix *Index) Insert(id string, vec []float32) error {
	if id == "" {
		return &meeting.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if err := ix.Check(vec); err != nil {
		return err
	}
	ix.insertNormalized(id, normalize(vec))
	return nil
}

func (ix *Index) insertNormalized(id string, unit []float32) {
	if i, ok := ix.pos[id]; ok {
		ix.vectors[i] = unit
		return
	}
	if ix.dim == 0 {
		ix.dim = len(unit)
	}
	ix.pos[id] = len(ix.ids)
	ix.ids = append(ix.ids, id)
	ix.vectors = append(ix.vectors, unit)
}

// Remove deletes the vector stored under id. Absent ids are ignored.
// Removing the last vector resets the dimensionality.
func (ix *Index) Remove(id string) {
	i, ok := ix.pos[id]
	if !ok {
		return
	}
	last := len(ix.ids) - 1
	if i != last {
		ix.ids[i] = ix.ids[last]
		ix.vectors[i] = ix.vectors[last]
		ix.pos[ix.ids[i]] = i
	}
	ix.ids[last] = ""
	ix.vectors[last] = nil
	ix.ids = ix.ids[:last]
	ix.vectors = ix.vectors[:last]
	delete(ix.pos, id)
	if len(ix.ids) == 0 {
		ix.dim = 0
	}
}

// Search returns up to k stored vectors most similar to query, ordered by
// descending cosine similarity with ties broken by ascending id. An empty
// index yields an empty result.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, &meeting.ValidationError{Field: "k", Message: "must be greater than 0"}
	}
	if len(ix.ids) == 0 {
		return []Match{}, nil
	}
	if err := ix.Check(query); err != nil {
		return nil, err
	}
	q := normalize(query)

	h := make(topK, 0, min(k, len(ix.ids)))
	for i, vec := range ix.vectors {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c := &candidate{id: ix.ids[i], similarity: dot(q, vec)}
		if h.Len() < k {
			heap.Push(&h, c)
			continue
		}
		if worse(h.Peek(), c) {
			h[0] = c
			c.index = 0
			heap.Fix(&h, 0)
		}
	}

	matches := make([]Match, h.Len())
	for i, c := range h {
		matches[i] = Match{ID: c.id, Similarity: c.similarity}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
