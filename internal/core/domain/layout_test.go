package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLayout() Layout {
	return NewLayout("/data/recordroute")
}

func TestLayout_KeyFor_OutputsRelative(t *testing.T) {
	l := testLayout()

	key := l.KeyFor("/data/recordroute/outputs/abc/meeting.summary.md")
	assert.Equal(t, "abc/meeting.summary.md", key)
}

func TestLayout_KeyFor_BaseRelative(t *testing.T) {
	l := testLayout()

	key := l.KeyFor("/data/recordroute/uploads/abc/meeting.m4a")
	assert.Equal(t, "uploads/abc/meeting.m4a", key)
}

func TestLayout_KeyFor_OutsideRoot(t *testing.T) {
	l := testLayout()

	key := l.KeyFor("/elsewhere/meeting.md")
	assert.Equal(t, "/elsewhere/meeting.md", key)
}

func TestLayout_NormalizeKey_EquivalentForms(t *testing.T) {
	l := testLayout()

	forms := []string{
		"abc/meeting.summary.md",
		"./abc/meeting.summary.md",
		"abc\\meeting.summary.md",
		"outputs/abc/meeting.summary.md",
		"/data/recordroute/outputs/abc/meeting.summary.md",
	}
	for _, form := range forms {
		assert.Equal(t, "abc/meeting.summary.md", l.NormalizeKey(form), "form %q", form)
	}
}

func TestLayout_NormalizeKey_Empty(t *testing.T) {
	l := testLayout()

	assert.Equal(t, "", l.NormalizeKey(""))
}

func TestLayout_AreaFor(t *testing.T) {
	l := testLayout()

	assert.Equal(t, AreaOutputs, l.AreaFor("abc/meeting.summary.md"))
	assert.Equal(t, AreaBase, l.AreaFor("uploads/abc/meeting.m4a"))
	assert.Equal(t, AreaBase, l.AreaFor("vector_store/meeting.vec"))
	assert.Equal(t, AreaBase, l.AreaFor("deleted/outputs/abc/meeting.md"))
}

func TestLayout_ResolveKey_RoundTrip(t *testing.T) {
	l := testLayout()

	abs := filepath.Join(l.OutputsDir(), "abc", "meeting.summary.md")
	key := l.KeyFor(abs)
	assert.Equal(t, abs, l.ResolveKey(key, AreaOutputs))
	assert.Equal(t, abs, l.ResolveKey(key, ""))
}

func TestLayout_ResolveKey_BaseArea(t *testing.T) {
	l := testLayout()

	abs := l.ResolveKey("uploads/abc/meeting.m4a", AreaBase)
	assert.Equal(t, filepath.Join(l.BaseDir, "uploads", "abc", "meeting.m4a"), abs)
}

func TestLayout_RecordPath_RoundTrip(t *testing.T) {
	l := testLayout()

	abs := filepath.Join(l.BaseDir, "uploads", "abc", "meeting.m4a")
	stored := l.RecordPath(abs)
	assert.Equal(t, "uploads/abc/meeting.m4a", stored)
	assert.Equal(t, abs, l.ResolveRecordPath(stored))
}

func TestLayout_RecordPath_BackslashInput(t *testing.T) {
	l := testLayout()

	abs := l.ResolveRecordPath("uploads\\abc\\meeting.m4a")
	assert.Equal(t, filepath.Join(l.BaseDir, "uploads", "abc", "meeting.m4a"), abs)
}
