// Package driven defines the interfaces that core calls OUT to
// infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - HistoryStore: upload record persistence
//   - AssetStore: asset registry persistence and reference resolution
//   - IndexStore: embedding index persistence and vector file I/O
//   - SearchCache: persisted search result cache
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: vector generation. Without it, similarity
//     search and indexing report provider-unavailable.
//   - LLMService: text generation. Without it, title summaries are
//     skipped.
//   - Transcriber: speech-to-text. Without it, transcript tasks cannot
//     run.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
