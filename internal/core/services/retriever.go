package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Domain vocabularies used to derive keywords from a query.
var (
	financialTerms = []string{
		"salary", "income", "earn", "40k", "50k", "60k", "annual", "usd", "dollar",
		"pound", "£", "rupee", "financial", "fund", "savings", "threshold",
	}
	sponsorshipTerms = []string{
		"sponsor", "sponsorship", "company", "employer", "employment", "work visa", "job offer",
	}
	documentTerms = []string{
		"passport", "bank statement", "payslip", "evidence", "certificate", "document",
		"tuberculosis", "english language", "biometric", "application form", "proof",
	}
)

// Lexical fallback weights used when no query vector is available.
const (
	lexicalSubstringWeight = 0.5
	lexicalKeywordWeight   = 0.5
)

// Retriever ranks chunks by a blend of vector similarity and keyword matches.
type Retriever struct {
	index    driven.VectorIndex
	chunks   driven.ChunkStore
	settings domain.RetrievalSettings
}

// NewRetriever creates a retriever over a loaded index.
// It returns domain.ErrIndexMissing when the index is nil or empty.
func NewRetriever(index driven.VectorIndex, chunks driven.ChunkStore, settings domain.RetrievalSettings) (*Retriever, error) {
	if index == nil || index.Len() == 0 {
		return nil, fmt.Errorf("retriever: %w", domain.ErrIndexMissing)
	}
	defaults := domain.DefaultAppSettings().Retrieval
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.OverFetch <= 0 {
		settings.OverFetch = defaults.OverFetch
	}
	if settings.VectorWeight == 0 && settings.KeywordWeight == 0 {
		settings.VectorWeight = defaults.VectorWeight
		settings.KeywordWeight = defaults.KeywordWeight
	}
	return &Retriever{index: index, chunks: chunks, settings: settings}, nil
}

// Size returns the number of indexed chunks.
func (r *Retriever) Size() int {
	return r.index.Len()
}

// Retrieve returns exactly topK unique results sorted by combined score, unless the
// corpus holds fewer unique chunks. Missing places are padded with unseen chunks at score 0.
//
// An all-zero query vector switches to lexical scoring. A search failure is returned
// alongside the padded results so callers can record the degradation.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, queryVec []float32) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = r.settings.TopK
	}
	keywords := DetectKeywords(query)
	logger.Debug("Detected keywords: %v", keywords)

	var (
		candidates []domain.RetrievalResult
		searchErr  error
	)
	if IsZero(queryVec) {
		logger.Debug("Zero query vector, using lexical scoring")
		candidates = r.lexicalCandidates(query, keywords)
	} else {
		candidates, searchErr = r.vectorCandidates(ctx, queryVec, topK*r.settings.OverFetch, keywords)
		if searchErr != nil {
			logger.Warn("Vector search failed: %v", searchErr)
		}
	}

	results := rankAndDedup(candidates, topK)
	results = r.pad(results, topK)
	logger.Debug("Retrieved %d results (%d candidates)", len(results), len(candidates))
	return results, searchErr
}

// vectorCandidates scores index hits with the hybrid formula.
func (r *Retriever) vectorCandidates(
	ctx context.Context, queryVec []float32, k int, keywords []string,
) ([]domain.RetrievalResult, error) {
	hits, err := r.index.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if math.IsNaN(hit.Similarity) || math.IsInf(hit.Similarity, 0) {
			logger.Debug("Skipping chunk %s with invalid similarity", hit.ChunkID)
			continue
		}
		res := r.resolve(hit.ChunkID)
		res.VectorScore = hit.Similarity
		res.KeywordScore = KeywordScore(res.Text, keywords, r.settings.KeywordCap)
		res.Score = r.settings.VectorWeight*res.VectorScore + r.settings.KeywordWeight*res.KeywordScore
		candidates = append(candidates, res)
	}
	return candidates, nil
}

// lexicalCandidates scores every stored chunk by substring and keyword matches.
func (r *Retriever) lexicalCandidates(query string, keywords []string) []domain.RetrievalResult {
	if r.chunks == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var candidates []domain.RetrievalResult
	for _, id := range r.chunks.IDs() {
		res := r.resolve(id)
		substring := 0.0
		if q != "" && strings.Contains(strings.ToLower(res.Text), q) {
			substring = 1.0
		}
		res.VectorScore = substring
		res.KeywordScore = KeywordScore(res.Text, keywords, r.settings.KeywordCap)
		res.Score = lexicalSubstringWeight*substring + lexicalKeywordWeight*res.KeywordScore
		if res.Score > 0 {
			candidates = append(candidates, res)
		}
	}
	return candidates
}

// resolve builds a result for id. Unknown identifiers resolve to empty metadata and text.
func (r *Retriever) resolve(id string) domain.RetrievalResult {
	res := domain.RetrievalResult{UID: id}
	if r.chunks == nil {
		return res
	}
	if meta, ok := r.chunks.Meta(id); ok {
		res.Meta = meta
	}
	res.Text = r.chunks.Text(id)
	return res
}

// pad backfills results up to topK with unseen chunks at score 0.
// Chunk store order is used first, then index order.
func (r *Retriever) pad(results []domain.RetrievalResult, topK int) []domain.RetrievalResult {
	if len(results) >= topK {
		return results
	}
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		seen[res.UID] = true
	}

	var pool []string
	if r.chunks != nil {
		pool = append(pool, r.chunks.IDs()...)
	}
	pool = append(pool, r.index.IDs()...)

	for _, id := range pool {
		if len(results) >= topK {
			break
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		res := r.resolve(id)
		res.Padded = true
		results = append(results, res)
	}
	return results
}

// rankAndDedup sorts by score descending (stable), keeps the first occurrence
// of each identifier and truncates to topK.
func rankAndDedup(candidates []domain.RetrievalResult, topK int) []domain.RetrievalResult {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	seen := make(map[string]bool, len(candidates))
	out := make([]domain.RetrievalResult, 0, topK)
	for _, c := range candidates {
		if seen[c.UID] {
			continue
		}
		seen[c.UID] = true
		out = append(out, c)
		if len(out) == topK {
			break
		}
	}
	return out
}

// DetectKeywords returns the vocabulary terms found in query, in vocabulary order.
func DetectKeywords(query string) []string {
	q := strings.ToLower(query)
	var keywords []string
	for _, vocab := range [][]string{financialTerms, sponsorshipTerms, documentTerms} {
		for _, term := range vocab {
			if strings.Contains(q, term) {
				keywords = append(keywords, term)
			}
		}
	}
	return keywords
}

// KeywordScore is min(matches, limit)/limit clamped to [0,1], where matches counts the
// keywords present in text. A non-positive limit uses the number of keywords.
func KeywordScore(text string, keywords []string, limit int) float64 {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	if limit <= 0 {
		limit = len(keywords)
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	if matches > limit {
		matches = limit
	}
	return clamp01(float64(matches) / float64(limit))
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
