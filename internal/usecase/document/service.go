// Package document handles course material uploads and lifecycle: validate,
// store the file, create the record, hand off to ingestion.
package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
)

// allowedTypes maps acceptable upload extensions. Legacy binary formats
// (doc, ppt) have no extractor and are rejected at upload rather than
// accepted and failed later.
var allowedTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"pptx": true,
	"txt":  true,
}

// Service handles document upload, listing and deletion.
type Service struct {
	repo      Repository
	ingester  Ingester
	uploadDir string
	maxSize   int64
	logger    *zap.Logger
}

// New creates a document service. maxSize is the upload cap in bytes.
func New(repo Repository, ingester Ingester, uploadDir string, maxSize int64, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		ingester:  ingester,
		uploadDir: uploadDir,
		maxSize:   maxSize,
		logger:    logger,
	}
}

// UploadInput carries an incoming file and its scope metadata.
type UploadInput struct {
	FileName   string
	Size       int64
	Content    io.Reader
	Title      string
	ProgramID  string
	CourseID   string
	UploadedBy string
}

// Upload validates the file, stores it, creates the document record in
// pending status and kicks off background ingestion. The returned document
// is accepted, not yet indexed.
func (s *Service) Upload(ctx context.Context, in UploadInput) (domain.Document, error) {
	ext := normalizeExt(in.FileName)
	if !allowedTypes[ext] {
		return domain.Document{}, fmt.Errorf("file type %q: %w", ext, domain.ErrUnsupportedFormat)
	}
	if in.Size > s.maxSize {
		return domain.Document{}, fmt.Errorf("file size %d exceeds %d bytes: %w", in.Size, s.maxSize, domain.ErrFileTooLarge)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(in.FileName, filepath.Ext(in.FileName))
	}

	doc := domain.Document{
		ID:         uuid.NewString(),
		Title:      title,
		FileName:   in.FileName,
		FileType:   ext,
		Size:       in.Size,
		ProgramID:  in.ProgramID,
		CourseID:   in.CourseID,
		UploadedBy: in.UploadedBy,
		UploadedAt: nowUTC(),
		Status:     domain.StatusPending,
	}
	doc.StoragePath = filepath.Join(s.uploadDir, doc.ID+"."+ext)

	if err := s.saveFile(doc.StoragePath, in.Content); err != nil {
		return domain.Document{}, fmt.Errorf("store file: %w", err)
	}

	if err := s.repo.Create(ctx, &doc); err != nil {
		if rmErr := os.Remove(doc.StoragePath); rmErr != nil {
			s.logger.Warn("Failed to remove orphaned upload",
				zap.String("path", doc.StoragePath),
				zap.Error(rmErr),
			)
		}
		return domain.Document{}, fmt.Errorf("create document: %w", err)
	}

	s.ingester.IngestAsync(doc.ID)

	s.logger.Info("Document accepted",
		zap.String("document_id", doc.ID),
		zap.String("file_type", ext),
		zap.Int64("size", in.Size),
	)
	return doc, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	return s.repo.Get(ctx, id)
}

// List returns documents matching the filter.
func (s *Service) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes the stored file, the document's chunks and the record.
// An already-missing file is tolerated.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove file %s: %w", doc.StoragePath, err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.Info("Document deleted", zap.String("document_id", id))
	return nil
}

// saveFile writes to a temp file and renames, so a crash mid-write never
// leaves a partial file at the final path.
func (s *Service) saveFile(path string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func normalizeExt(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
