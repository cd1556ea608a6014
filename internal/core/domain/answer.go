package domain

// Answer is the result returned to a caller for one query.
// It is constructed fresh per query and not mutated after return.
type Answer struct {
	// Parsed is the decision record parsed from the model output.
	Parsed DecisionRecord `json:"parsed"`

	// FinalConfidence blends retrieval confidence with the declared confidence.
	FinalConfidence float64 `json:"final_confidence"`

	// RetrievalScoreMean is the arithmetic mean of the combined retrieval scores.
	RetrievalScoreMean float64 `json:"retrieval_score_mean"`

	// Retrieved summarises the context chunks in rank order.
	Retrieved []RetrievedChunk `json:"retrieved"`

	// RawLLM is the verbatim model text, including any error marker.
	RawLLM string `json:"raw_llm"`

	// YesNo is the eligibility flag derived from the decision.
	YesNo Eligibility `json:"yes_no"`

	// Degraded is true when embedding failed and retrieval fell back to lexical scoring.
	Degraded bool `json:"degraded,omitempty"`

	// Results holds the full retrieval results, including chunk text.
	Results []RetrievalResult `json:"-"`

	// Prompt is the prompt sent to the model.
	Prompt string `json:"-"`
}

// RetrievedChunk is the serialised summary of one retrieval result.
type RetrievedChunk struct {
	UID   string    `json:"uid"`
	Score float64   `json:"score"`
	Meta  ChunkMeta `json:"meta"`
}

// Summaries converts retrieval results to their serialised summaries.
func Summaries(results []RetrievalResult) []RetrievedChunk {
	out := make([]RetrievedChunk, len(results))
	for i := range results {
		out[i] = RetrievedChunk{
			UID:   results[i].UID,
			Score: results[i].Score,
			Meta:  results[i].Meta,
		}
	}
	return out
}
