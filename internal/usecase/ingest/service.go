// Package ingest runs the document processing pipeline: extract text from
// the stored file, split it into chunks, embed each chunk, persist. Runs
// detached from the upload request.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
	"github.com/innovorex/campuskb/internal/metrics"
)

// Service drives a document through pending -> processing -> processed|failed.
type Service struct {
	repo      Repository
	extractor Extractor
	chunker   Chunker
	embedder  BatchEmbedder
	timeout   time.Duration
	logger    *zap.Logger

	wg sync.WaitGroup
}

// New creates an ingestion service. timeout bounds one document's pipeline.
func New(
	repo Repository,
	extractor Extractor,
	chunker Chunker,
	embedder BatchEmbedder,
	timeout time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		timeout:   timeout,
		logger:    logger,
	}
}

// IngestAsync starts ingestion in the background and returns immediately.
// The pipeline runs on a fresh context so it survives the upload request,
// bounded by the service timeout.
func (s *Service) IngestAsync(docID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.Ingest(ctx, docID); err != nil {
			s.logger.Error("Ingestion failed",
				zap.String("document_id", docID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all in-flight ingestions finish. Used during shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Ingest processes one document synchronously. Any pipeline error marks the
// document failed with a reason; a document never stays in processing.
func (s *Service) Ingest(ctx context.Context, docID string) error {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, docID, domain.StatusProcessing, 0, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	chunkCount, err := s.run(ctx, &doc)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		if ferr := s.repo.UpdateStatus(ctx, docID, domain.StatusFailed, 0, err.Error()); ferr != nil {
			s.logger.Error("Failed to persist failed status",
				zap.String("document_id", docID),
				zap.Error(ferr),
			)
		}
		return err
	}

	if err := s.repo.UpdateStatus(ctx, docID, domain.StatusProcessed, chunkCount, ""); err != nil {
		// The document must not stay in processing. Try to record the
		// failure so the status still reaches a terminal state.
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		if ferr := s.repo.UpdateStatus(ctx, docID, domain.StatusFailed, 0, err.Error()); ferr != nil {
			s.logger.Error("Failed to persist failed status",
				zap.String("document_id", docID),
				zap.Error(ferr),
			)
		}
		return fmt.Errorf("mark processed: %w", err)
	}

	metrics.IngestDocumentsTotal.WithLabelValues("processed").Inc()
	s.logger.Info("Document ingested",
		zap.String("document_id", docID),
		zap.Int("chunks", chunkCount),
	)
	return nil
}

func (s *Service) run(ctx context.Context, doc *domain.Document) (int, error) {
	text, err := s.extractor.Extract(ctx, doc.FileType, doc.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}

	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("document %s yielded no text", doc.ID)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID:    doc.ID,
			Index:         i,
			Content:       content,
			ProgramID:     doc.ProgramID,
			CourseID:      doc.CourseID,
			DocumentTitle: doc.Title,
		}
	}

	// Embedding failure is non-fatal: chunks without vectors still serve
	// keyword retrieval.
	vectors, err := s.embedder.BatchEmbed(ctx, pieces)
	if err != nil {
		s.logger.Warn("Embedding unavailable, storing chunks without vectors",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
		metrics.IngestChunksTotal.WithLabelValues("no").Add(float64(len(chunks)))
	} else {
		for i := range chunks {
			if i < len(vectors) {
				chunks[i].Embedding = vectors[i]
			}
		}
		metrics.IngestChunksTotal.WithLabelValues("yes").Add(float64(len(chunks)))
	}

	if err := s.repo.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("persist chunks: %w", err)
	}
	return len(chunks), nil
}
