package domain

import (
	"path"
	"path/filepath"
	"strings"
)

// Directory names under the data root. Output files are indexed by keys
// relative to the outputs tree; everything else is keyed relative to the
// root itself.
const (
	UploadsDirName = "uploads"
	OutputsDirName = "outputs"
	VectorDirName  = "vector_store"
	CacheDirName   = "cache"
	DeletedDirName = "deleted"
	LogDirName     = "log"
)

// baseRootedPrefixes are leading key segments that mark a key as rooted
// at the data root rather than the outputs tree.
var baseRootedPrefixes = map[string]bool{
	UploadsDirName: true,
	OutputsDirName: true,
	VectorDirName:  true,
	CacheDirName:   true,
	DeletedDirName: true,
	LogDirName:     true,
}

// Layout derives every path in the on-disk data area from a single
// root and owns canonical key normalization. Keys are forward-slash
// relative paths; two keys that normalize identically name the same
// document.
type Layout struct {
	// BaseDir is the absolute data root.
	BaseDir string
}

// NewLayout builds a layout over the given root directory.
func NewLayout(baseDir string) Layout {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = filepath.Clean(baseDir)
	}
	return Layout{BaseDir: abs}
}

// UploadsDir is the root of per-record upload folders.
func (l Layout) UploadsDir() string { return filepath.Join(l.BaseDir, UploadsDirName) }

// OutputsDir is the root of per-record derived-output folders.
func (l Layout) OutputsDir() string { return filepath.Join(l.BaseDir, OutputsDirName) }

// VectorDir holds the embedding index and live vector files.
func (l Layout) VectorDir() string { return filepath.Join(l.BaseDir, VectorDirName) }

// CacheDir holds one JSON file per cached search.
func (l Layout) CacheDir() string { return filepath.Join(l.BaseDir, CacheDirName) }

// DeletedUploadsDir mirrors UploadsDir for soft-deleted records.
func (l Layout) DeletedUploadsDir() string {
	return filepath.Join(l.BaseDir, DeletedDirName, UploadsDirName)
}

// DeletedOutputsDir mirrors OutputsDir for soft-deleted records.
func (l Layout) DeletedOutputsDir() string {
	return filepath.Join(l.BaseDir, DeletedDirName, OutputsDirName)
}

// DeletedVectorDir mirrors VectorDir for soft-deleted records.
func (l Layout) DeletedVectorDir() string {
	return filepath.Join(l.BaseDir, DeletedDirName, VectorDirName)
}

// HistoryFile is the upload history store.
func (l Layout) HistoryFile() string { return filepath.Join(l.BaseDir, "upload_history.json") }

// RegistryFile is the asset registry store.
func (l Layout) RegistryFile() string { return filepath.Join(l.BaseDir, "file_registry.json") }

// IndexFile is the embedding index store.
func (l Layout) IndexFile() string { return filepath.Join(l.VectorDir(), "index.json") }

// KeyFor converts any path to its canonical index key: forward-slash,
// relative to the outputs tree when the path lives there, otherwise
// relative to the data root.
func (l Layout) KeyFor(p string) string {
	abs := l.absolute(p)
	if rel, ok := relativeTo(abs, l.OutputsDir()); ok {
		return rel
	}
	if rel, ok := relativeTo(abs, l.BaseDir); ok {
		return rel
	}
	return filepath.ToSlash(filepath.Clean(abs))
}

// NormalizeKey folds a stored key of any historical shape (absolute,
// back-slashed, outputs-prefixed) to the canonical form.
func (l Layout) NormalizeKey(key string) string {
	if key == "" {
		return key
	}
	k := strings.ReplaceAll(key, "\\", "/")

	if isAbsoluteKey(k) {
		return l.KeyFor(filepath.FromSlash(k))
	}

	// Legacy keys stored relative to the root carry the outputs prefix.
	if rest, ok := strings.CutPrefix(k, OutputsDirName+"/"); ok {
		return path.Clean(rest)
	}

	return path.Clean(k)
}

// AreaFor infers the storage area of a canonical key from its leading
// segment.
func (l Layout) AreaFor(key string) StorageArea {
	first, _, _ := strings.Cut(path.Clean(key), "/")
	if baseRootedPrefixes[first] {
		return AreaBase
	}
	return AreaOutputs
}

// ResolveKey maps a canonical key back to an absolute path, using the
// storage-area tag when present and the key shape otherwise.
func (l Layout) ResolveKey(key string, area StorageArea) string {
	k := l.NormalizeKey(key)
	if isAbsoluteKey(k) {
		return filepath.Clean(filepath.FromSlash(k))
	}
	switch area {
	case AreaBase:
		return filepath.Join(l.BaseDir, filepath.FromSlash(k))
	case AreaOutputs:
		return filepath.Join(l.OutputsDir(), filepath.FromSlash(k))
	}
	if l.AreaFor(k) == AreaBase {
		return filepath.Join(l.BaseDir, filepath.FromSlash(k))
	}
	return filepath.Join(l.OutputsDir(), filepath.FromSlash(k))
}

// RecordPath converts an absolute path to the base-relative form stored
// in the registry and history.
func (l Layout) RecordPath(p string) string {
	abs := l.absolute(p)
	if rel, ok := relativeTo(abs, l.BaseDir); ok {
		return rel
	}
	return filepath.ToSlash(filepath.Clean(abs))
}

// ResolveRecordPath maps a stored base-relative path to an absolute
// path.
func (l Layout) ResolveRecordPath(stored string) string {
	s := strings.ReplaceAll(stored, "\\", "/")
	if isAbsoluteKey(s) {
		return filepath.Clean(filepath.FromSlash(s))
	}
	return filepath.Join(l.BaseDir, filepath.FromSlash(s))
}

func (l Layout) absolute(p string) string {
	if filepath.IsAbs(p) || isAbsoluteKey(filepath.ToSlash(p)) {
		return filepath.Clean(p)
	}
	return filepath.Join(l.BaseDir, p)
}

// relativeTo returns the forward-slash relative form of p under base,
// or false when p is outside base.
func relativeTo(p, base string) (string, bool) {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return "", false
	}
	slash := filepath.ToSlash(rel)
	if slash == ".." || strings.HasPrefix(slash, "../") {
		return "", false
	}
	if slash == "." {
		return "", false
	}
	return slash, true
}

// isAbsoluteKey recognises both POSIX absolute keys and Windows
// drive-letter keys that legacy stores recorded verbatim.
func isAbsoluteKey(k string) bool {
	if strings.HasPrefix(k, "/") {
		return true
	}
	return len(k) > 1 && k[1] == ':' && isAlpha(k[0])
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
