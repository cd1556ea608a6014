// Package domain defines the core entities of the SwiftVisa assistant.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A unit of source text used for retrieval
//   - RetrievalResult: A ranked chunk with its score components
//   - DecisionRecord: The structured reading of one model answer
//   - Answer: Everything returned to a caller for one query
//   - AuditRecord: One append-only entry in the decision log
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
