// Package domain defines the core business entities for Recordroute.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - UploadRecord: One uploaded source file and its task lifecycle
//   - Asset: A registered artifact produced by a task
//   - IndexEntry: One embedded document in the vector index
//   - Reference: An opaque identifier or legacy path pointing at an asset
//   - Layout: Canonical key normalization and path resolution
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
