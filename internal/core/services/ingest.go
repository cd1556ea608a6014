package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbedBatchSize is the number of chunks embedded per backend call.
const DefaultEmbedBatchSize = 16

// ErrAlreadyIndexed is the skip reason for a source already present in the corpus.
var ErrAlreadyIndexed = errors.New("already indexed, reset the corpus to re-ingest")

// mimeByExtension lists the file types accepted for ingestion.
var mimeByExtension = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
	".md":  "text/markdown",
}

// MIMETypeFor returns the MIME type for path, or "" when the extension is not ingestible.
func MIMETypeFor(path string) string {
	return mimeByExtension[strings.ToLower(filepath.Ext(path))]
}

// CorpusOpener returns the corpus to ingest into. With reset it returns an empty one.
type CorpusOpener func(reset bool) (driven.CorpusWriter, error)

// IngestService extracts, chunks, embeds and indexes documents from disk.
type IngestService struct {
	registry  driven.NormaliserRegistry
	pipeline  driven.PostProcessorPipeline
	embedder  *Embedder
	open      CorpusOpener
	batchSize int
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder *Embedder,
	open CorpusOpener,
) *IngestService {
	return &IngestService{
		registry:  registry,
		pipeline:  pipeline,
		embedder:  embedder,
		open:      open,
		batchSize: DefaultEmbedBatchSize,
	}
}

// SetBatchSize overrides the embedding batch size.
func (s *IngestService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// Ingest indexes every accepted file under req.Paths and saves the corpus.
// Files that fail extraction or yield no text are skipped and reported.
// Without Reset, files whose source label is already indexed are skipped too,
// so repeated runs never duplicate chunks.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	logger.Section("Ingestion")

	files, err := CollectFiles(req.Paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d candidate files", len(files))

	corpus, err := s.open(req.Reset)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}

	report := &domain.IngestReport{FilesSeen: len(files), Skipped: make(map[string]string)}
	next := corpus.Len()
	indexed := indexedSources(corpus)
	var pending []domain.Chunk

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if indexed[filepath.Base(path)] {
			logger.Debug("Skipping %s: already indexed", path)
			report.FilesSkipped++
			report.Skipped[path] = ErrAlreadyIndexed.Error()
			continue
		}

		chunks, err := s.chunkFile(ctx, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			report.FilesSkipped++
			report.Skipped[path] = err.Error()
			continue
		}

		for i := range chunks {
			chunks[i].ID = strconv.Itoa(next)
			next++
		}
		indexed[filepath.Base(path)] = true
		logger.Debug("%s: %d chunks", path, len(chunks))
		pending = append(pending, chunks...)

		for len(pending) >= s.batchSize {
			if err := s.store(ctx, corpus, pending[:s.batchSize]); err != nil {
				return nil, err
			}
			report.ChunksAdded += s.batchSize
			pending = pending[s.batchSize:]
		}
	}

	if len(pending) > 0 {
		if err := s.store(ctx, corpus, pending); err != nil {
			return nil, err
		}
		report.ChunksAdded += len(pending)
	}

	if err := corpus.Save(); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}
	report.IndexSize = corpus.Len()
	logger.Info("Indexed %d chunks from %d files (%d skipped)",
		report.ChunksAdded, report.FilesSeen-report.FilesSkipped, report.FilesSkipped)
	return report, nil
}

// indexedSources returns the source labels present in the corpus.
func indexedSources(corpus driven.ChunkStore) map[string]bool {
	sources := make(map[string]bool)
	for _, id := range corpus.IDs() {
		if meta, ok := corpus.Meta(id); ok && meta.Source != "" {
			sources[meta.Source] = true
		}
	}
	return sources
}

// chunkFile reads, normalises and chunks one file.
func (s *IngestService) chunkFile(ctx context.Context, path string) ([]domain.Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: MIMETypeFor(path),
		Content:  content,
		Metadata: map[string]any{"filename": filepath.Base(path)},
	}
	doc, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	doc.Source = filepath.Base(path)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text extracted", domain.ErrInvalidInput)
	}
	for i := range chunks {
		chunks[i].Source = doc.Source
		chunks[i].Position = i
	}
	return chunks, nil
}

// store embeds one batch and adds it to the corpus.
func (s *IngestService) store(ctx context.Context, corpus driven.CorpusWriter, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	for i := range batch {
		if err := corpus.Put(batch[i], vecs[i]); err != nil {
			return fmt.Errorf("add chunk %s: %w", batch[i].ID, err)
		}
	}
	return nil
}

// CollectFiles expands paths into the sorted set of ingestible files.
// Directories are walked recursively, skipping hidden files and directories.
// A missing path is an error.
func CollectFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", domain.ErrInvalidInput)
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if MIMETypeFor(path) == "" || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, root)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
