package domain

// RetrievalResult is one ranked candidate returned by the retriever.
// Results are sorted by Score descending and unique by UID.
type RetrievalResult struct {
	// UID is the chunk identifier.
	UID string `json:"uid"`

	// Score is the combined hybrid score.
	Score float64 `json:"score"`

	// VectorScore is the inner-product similarity component.
	VectorScore float64 `json:"vector_score"`

	// KeywordScore is the keyword match component in [0,1].
	KeywordScore float64 `json:"keyword_score"`

	// Meta is the chunk metadata. Zero when the identifier had no metadata record.
	Meta ChunkMeta `json:"meta"`

	// Text is the chunk text. Empty when the identifier had no text record.
	Text string `json:"text,omitempty"`

	// Padded marks a zero-score backfill entry.
	Padded bool `json:"padded,omitempty"`
}

// Scores returns the combined scores of results in order.
func Scores(results []RetrievalResult) []float64 {
	scores := make([]float64, len(results))
	for i := range results {
		scores[i] = results[i].Score
	}
	return scores
}
