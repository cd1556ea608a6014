package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Document represents a source file after text extraction.
// It is the canonical representation before cleaning and chunking.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location on disk.
	URI string

	// Source is the file name used as the citation label.
	Source string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// Chunk is an immutable slice of source text, the unit of retrieval.
// Chunks are created during ingestion and only removed by a full reindex.
type Chunk struct {
	// ID is the identifier shared by the index, metadata and chunk text files.
	ID string

	// Source is the name of the document the chunk came from.
	Source string

	// Position is the ordinal position within the source.
	Position int

	// Text is the raw chunk text.
	Text string
}

// Meta returns the persisted metadata record for the chunk.
func (c Chunk) Meta() ChunkMeta {
	return ChunkMeta{Source: c.Source, ChunkID: c.ID}
}

// ChunkMeta is the metadata entry persisted for each chunk identifier.
type ChunkMeta struct {
	Source  string `json:"source"`
	ChunkID string `json:"chunk_id"`
}

// UnmarshalJSON accepts chunk_id as a JSON string or number.
func (m *ChunkMeta) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source  string          `json:"source"`
		ChunkID json.RawMessage `json:"chunk_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Source = raw.Source
	m.ChunkID = ""
	id := bytes.TrimSpace(raw.ChunkID)
	switch {
	case len(id) == 0 || string(id) == "null":
	case id[0] == '"':
		if err := json.Unmarshal(id, &m.ChunkID); err != nil {
			return fmt.Errorf("chunk_id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("chunk_id: %w", err)
		}
		m.ChunkID = n.String()
	}
	return nil
}

// IsZero reports whether the metadata is missing.
func (m ChunkMeta) IsZero() bool {
	return m.Source == "" && m.ChunkID == ""
}
