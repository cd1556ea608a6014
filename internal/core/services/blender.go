package services

import (
	"math"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// Blender combines retrieval similarity with the model's declared confidence.
type Blender struct {
	RetrievalWeight float64
	DeclaredWeight  float64
}

// NewBlender creates a blender from confidence settings.
func NewBlender(settings domain.ConfidenceSettings) Blender {
	return Blender{RetrievalWeight: settings.RetrievalWeight, DeclaredWeight: settings.DeclaredWeight}
}

// RetrievalConfidence maps each score from [-1,1] onto [0,1] and averages them.
// Scores outside [-1,1] are clipped first. No scores yield 0.
func RetrievalConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		s = math.Max(-1, math.Min(1, s))
		sum += (s + 1) / 2
	}
	return sum / float64(len(scores))
}

// MeanScore is the arithmetic mean of raw retrieval scores.
func MeanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// Blend returns the final confidence in [0,1]. Without a declared confidence
// the retrieval confidence is returned unweighted.
func (b Blender) Blend(scores []float64, declared *float64) float64 {
	retrieval := RetrievalConfidence(scores)
	if declared == nil {
		return retrieval
	}
	return clamp01(b.RetrievalWeight*retrieval + b.DeclaredWeight*(*declared))
}
