// Package hugot provides an in-process embedding service using hugot's pure Go
// ONNX backend. The model is downloaded on first use.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions = 384
	DefaultOnnxFile   = "onnx/model.onnx"
	pipelineName      = "swiftvisa-embedder"
)

// Config holds configuration for the hugot embedding service.
type Config struct {
	// Model is the Hugging Face model name (default: all-MiniLM-L6-v2).
	Model string

	// ModelDir is where models are downloaded (default: ~/.swiftvisa/models).
	ModelDir string

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int
}

// runFunc embeds a batch of texts.
type runFunc func(texts []string) ([][]float32, error)

// EmbeddingService generates embeddings with a local sentence transformer.
// The session is created on first use and reused; calls are serialised.
type EmbeddingService struct {
	mu         sync.Mutex
	model      string
	modelDir   string
	dimensions int

	run     runFunc
	destroy func() error
}

// NewEmbeddingService creates a new hugot embedding service. No I/O happens until first use.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.ModelDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("hugot: home directory: %w", err)
		}
		cfg.ModelDir = filepath.Join(home, ".swiftvisa", "models")
	}

	return &EmbeddingService{
		model:      cfg.Model,
		modelDir:   cfg.ModelDir,
		dimensions: cfg.Dimensions,
	}, nil
}

// ModelPath returns where the model is, or will be, stored.
func (s *EmbeddingService) ModelPath() string {
	return filepath.Join(s.modelDir, strings.ReplaceAll(s.model, "/", "_"))
}

// prepareModel downloads the model if it is not present and returns its path.
func (s *EmbeddingService) prepareModel() (string, error) {
	modelPath := s.ModelPath()
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("hugot: stat model: %w", err)
	}

	if err := os.MkdirAll(s.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("hugot: create model directory: %w", err)
	}
	logger.Info("Downloading embedding model %s to %s", s.model, s.modelDir)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = DefaultOnnxFile
	downloaded, err := hugot.DownloadModel(s.model, s.modelDir, opts)
	if err != nil {
		return "", fmt.Errorf("hugot: download model: %w", err)
	}
	return downloaded, nil
}

// ensure creates the session and pipeline once. Caller must hold s.mu.
func (s *EmbeddingService) ensure() error {
	if s.run != nil {
		return nil
	}

	modelPath, err := s.prepareModel()
	if err != nil {
		return err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("hugot: create session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      pipelineName,
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return fmt.Errorf("hugot: create pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return fmt.Errorf("hugot: create pipeline: %w", err)
	}

	s.run = func(texts []string) ([][]float32, error) {
		result, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return result.Embeddings, nil
	}
	s.destroy = session.Destroy
	return nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one pipeline run.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(); err != nil {
		return nil, err
	}
	vecs, err := s.run(texts)
	if err != nil {
		return nil, fmt.Errorf("hugot: generate embedding: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("hugot: got %d embeddings for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping loads the model, downloading it if needed.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure()
}

// Close destroys the session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroy == nil {
		return nil
	}
	err := s.destroy()
	s.run = nil
	s.destroy = nil
	return err
}
