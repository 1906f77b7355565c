// Package jsonfile implements the persisted stores as pretty-printed
// JSON files under a single data root: the upload history, the asset
// registry, the embedding index with its sibling vector files, and the
// search result cache.
//
// Each store is read-modify-write on one file. Every mutation takes the
// store's exclusive lock, re-reads the current on-disk state, applies
// the change and writes back atomically (temp file + rename). Stores
// never hold their lock across network calls. Cross-store consistency
// is the lifecycle coordinator's job, not this package's.
//
// A store file that fails to parse is treated as an empty store and
// logged, never a startup failure.
package jsonfile
