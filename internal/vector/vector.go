// Package vector implements the on-disk vector codec and the similarity
// math used by the search engine. Vector files are a raw little-endian
// sequence of IEEE 754 float32 values without a length prefix; the
// dimension is derived from the file size on decode.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Encode converts a vector to its binary file representation.
func Encode(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// Decode converts a binary blob produced by Encode back into a vector.
func Decode(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// WriteFile persists a vector atomically (temp file + rename).
func WriteFile(path string, vec []float32) error {
	tmp, err := os.CreateTemp(dirOf(path), ".vec-*")
	if err != nil {
		return fmt.Errorf("vector: create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(Encode(vec)); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("vector: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("vector: close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("vector: rename %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a vector file written by WriteFile.
func ReadFile(path string) ([]float32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return "."
}

// CosineSimilarity computes the cosine similarity between two vectors.
// It returns an error if the vectors have different lengths or if
// either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine similarity on empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("vector: cosine similarity with zero-magnitude vector")
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// Mean returns the element-wise arithmetic mean of the given vectors.
// All vectors must share one dimension.
func Mean(vecs [][]float32) ([]float32, error) {
	if len(vecs) == 0 {
		return nil, fmt.Errorf("vector: mean of no vectors")
	}
	if len(vecs) == 1 {
		return vecs[0], nil
	}
	dim := len(vecs[0])
	acc := make([]float64, dim)
	for _, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("vector: mean dimension mismatch: %d vs %d", len(v), dim)
		}
		for i, x := range v {
			acc[i] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(vecs))
	for i, x := range acc {
		out[i] = float32(x / n)
	}
	return out, nil
}
