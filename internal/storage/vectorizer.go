/**
 * Document vectorizer - hashed character trigrams
 *
 * Produces a fixed-size vector from document text for near-duplicate
 * detection and similar-document search. Character trigrams are hashed
 * into VectorDim buckets and the count vector is L2-normalized, so
 * cosine similarity in Qdrant approximates trigram overlap. Fully
 * deterministic, no external model service involved.
 */

package storage

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Vectorize converts text into an L2-normalized VectorDim-sized vector.
// Empty or all-whitespace text yields the zero vector.
func Vectorize(text string) []float32 {
	vector := make([]float32, VectorDim)

	runes := normalizeForVector(text)
	if len(runes) < 3 {
		return vector
	}

	h := fnv.New32a()
	for i := 0; i+3 <= len(runes); i++ {
		h.Reset()
		h.Write([]byte(string(runes[i : i+3])))
		vector[h.Sum32()%VectorDim]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}

	return vector
}

// normalizeForVector lowercases and collapses whitespace runs to single
// spaces so OCR spacing noise does not change the trigram set.
func normalizeForVector(text string) []rune {
	var out []rune
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if !lastSpace {
				out = append(out, ' ')
				lastSpace = true
			}
			continue
		}
		out = append(out, r)
		lastSpace = false
	}
	if n := len(out); n > 0 && out[n-1] == ' ' {
		out = out[:n-1]
	}
	return out
}
