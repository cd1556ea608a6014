// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for queries to be served:
//
//   - EmbeddingService: Generates query and chunk vectors
//   - VectorIndex: Inner-product nearest neighbour search
//   - ChunkStore: Chunk metadata and text lookup by identifier
//   - LLMService: Hosted or local text generation
//   - PromptStore: Prompt templates
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil or empty - the application degrades gracefully:
//
//   - DecisionLogger: Append-only audit records
//   - DecisionHistory: Reading audit records back
//   - HealthReporter: Failure counters for non-fatal errors
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
