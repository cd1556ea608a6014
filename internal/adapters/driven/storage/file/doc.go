// Package file provides directory-backed storage: the persisted corpus
// (vector index, chunk metadata and chunk text) and the JSONL decision log.
package file
