// Package content provides content hashing and size-bounded text
// splitting for embedding requests with input limits.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultMaxChars bounds a single embedding request. Inputs above the
// limit are split and the chunk vectors averaged.
const DefaultMaxChars = 7500

// HashBytes returns the lowercase hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the lowercase hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Split breaks text into chunks of at most maxChars characters,
// preferring paragraph boundaries, then line breaks, then spaces, and
// never splitting inside a word unless a single word exceeds the limit.
// Text at or under the limit is returned as a single chunk.
func Split(text string, maxChars int) []string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	total := len(runes)

	for start < total {
		end := start + maxChars
		if end > total {
			end = total
		}

		split := end
		if end < total {
			pos := lastBoundary(runes, start, end)
			if pos > start {
				split = pos
			}
		}

		chunk := trimChunk(runes[start:split])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		start = split
		for start < total && (runes[start] == '\n' || runes[start] == ' ') {
			start++
		}
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// lastBoundary finds the rightmost natural split point in [start, end):
// a blank line first, a line break next, a space as last resort.
// Returns -1 when no boundary exists.
func lastBoundary(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i - 1
		}
	}
	for i := end - 1; i > start; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	for i := end - 1; i > start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

func trimChunk(runes []rune) string {
	s := 0
	e := len(runes)
	for s < e && isSpaceRune(runes[s]) {
		s++
	}
	for e > s && isSpaceRune(runes[e-1]) {
		e--
	}
	return string(runes[s:e])
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
