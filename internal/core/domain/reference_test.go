package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReference_Identifier(t *testing.T) {
	ref := ParseReference("3f2b8c9a-1d4e-4f6a-9b0c-7e5d2a1f8c3b")
	assert.True(t, ref.IsIdentifier())
	assert.Equal(t, "3f2b8c9a-1d4e-4f6a-9b0c-7e5d2a1f8c3b", ref.Value())
}

func TestParseReference_DownloadPrefix(t *testing.T) {
	ref := ParseReference("/download/3f2b8c9a-1d4e-4f6a-9b0c-7e5d2a1f8c3b")
	assert.True(t, ref.IsIdentifier())
	assert.Equal(t, "3f2b8c9a-1d4e-4f6a-9b0c-7e5d2a1f8c3b", ref.Value())
}

func TestParseReference_LegacyPath(t *testing.T) {
	ref := ParseReference("/download/abc/meeting.summary.md")
	assert.False(t, ref.IsIdentifier())
	assert.Equal(t, "abc/meeting.summary.md", ref.Value())
}

func TestParseReference_BackslashLegacyPath(t *testing.T) {
	ref := ParseReference("abc\\meeting.summary.md")
	assert.False(t, ref.IsIdentifier())
	assert.Equal(t, "abc/meeting.summary.md", ref.Value())
}

func TestParseReference_Empty(t *testing.T) {
	ref := ParseReference("  ")
	assert.True(t, ref.IsZero())
}

func TestParseReference_MalformedUUID(t *testing.T) {
	// Wrong length and wrong separator positions are legacy paths.
	assert.False(t, ParseReference("3f2b8c9a-1d4e-4f6a-9b0c").IsIdentifier())
	assert.False(t, ParseReference("3f2b8c9a11d4e-4f6a-9b0c-7e5d2a1f8c3b").IsIdentifier())
	assert.False(t, ParseReference("zf2b8c9a-1d4e-4f6a-9b0c-7e5d2a1f8c3b").IsIdentifier())
}
