// Package document persists documents and their chunks as Redis hashes,
// with membership sets for listing and course-scoped retrieval.
package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/innovorex/campuskb/internal/db"
	"github.com/innovorex/campuskb/internal/domain"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// Repo implements the document and chunk repositories.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create persists a new document record and registers it in the listing set.
func (r *Repo) Create(ctx context.Context, doc *domain.Document) error {
	key := docKey(doc.ID)
	if err := r.store.HSet(ctx, key, docHashFields(doc)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if err := r.store.SAdd(ctx, docsKey, doc.ID); err != nil {
		return fmt.Errorf("sadd %s: %w", docsKey, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Document, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return parseDocHash(id, m), nil
}

// UpdateStatus transitions a document's status, enforcing the lifecycle.
// chunkCount and failureReason are written alongside the new status.
func (r *Repo) UpdateStatus(ctx context.Context, id string, status domain.Status, chunkCount int, failureReason string) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !doc.Status.CanTransition(status) {
		return fmt.Errorf("status %s to %s: %w", doc.Status, status, domain.ErrInvalidTransition)
	}

	fields := map[string]string{
		"status":         string(status),
		"chunk_count":    strconv.Itoa(chunkCount),
		"failure_reason": failureReason,
	}
	if err := r.store.HSet(ctx, docKey(id), fields); err != nil {
		return fmt.Errorf("hset %s: %w", docKey(id), err)
	}
	return nil
}

// List returns all documents matching the filter. Filtering happens on the
// application side; the corpus is small enough that a full set fetch is fine.
func (r *Repo) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	ids, err := r.store.SMembers(ctx, docsKey)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", docsKey, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	docs := make([]domain.Document, 0, len(ids))
	for i, id := range ids {
		if len(hashes[i]) == 0 {
			continue
		}
		doc := parseDocHash(id, hashes[i])
		if filter.Matches(&doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Delete removes a document, its chunks and all set memberships.
func (r *Repo) Delete(ctx context.Context, id string) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	chunkKeys := make([]string, 0, doc.ChunkCount)
	for i := 0; i < doc.ChunkCount; i++ {
		chunkKeys = append(chunkKeys, chunkKey(id, i))
	}

	if len(chunkKeys) > 0 {
		if err := r.store.SRem(ctx, allChunksKey, chunkKeys...); err != nil {
			return fmt.Errorf("srem %s: %w", allChunksKey, err)
		}
		if doc.CourseID != "" {
			if err := r.store.SRem(ctx, courseChunksKey(doc.CourseID), chunkKeys...); err != nil {
				return fmt.Errorf("srem %s: %w", courseChunksKey(doc.CourseID), err)
			}
		}
		if err := r.store.Del(ctx, chunkKeys...); err != nil {
			return fmt.Errorf("del chunks: %w", err)
		}
	}

	if err := r.store.SRem(ctx, docsKey, id); err != nil {
		return fmt.Errorf("srem %s: %w", docsKey, err)
	}
	if err := r.store.Del(ctx, docKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", docKey(id), err)
	}
	return nil
}

// SaveChunks persists a document's chunks in one round trip and registers
// them in the retrieval sets.
func (r *Repo) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	keys := make([]string, len(chunks))
	for i := range chunks {
		key := chunkKey(chunks[i].DocumentID, chunks[i].Index)
		keys[i] = key
		items[i] = db.HashSetItem{Key: key, Fields: chunkHashFields(&chunks[i])}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	if err := r.store.SAdd(ctx, allChunksKey, keys...); err != nil {
		return fmt.Errorf("sadd %s: %w", allChunksKey, err)
	}
	if courseID := chunks[0].CourseID; courseID != "" {
		if err := r.store.SAdd(ctx, courseChunksKey(courseID), keys...); err != nil {
			return fmt.Errorf("sadd %s: %w", courseChunksKey(courseID), err)
		}
	}
	return nil
}

// ChunksByScope returns the candidate chunks for retrieval. A courseID
// narrows the scope to that course's set; otherwise all chunks qualify.
func (r *Repo) ChunksByScope(ctx context.Context, courseID string) ([]domain.Chunk, error) {
	setKey := allChunksKey
	if courseID != "" {
		setKey = courseChunksKey(courseID)
	}

	keys, err := r.store.SMembers(ctx, setKey)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", setKey, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(keys))
	for i, key := range keys {
		if len(hashes[i]) == 0 {
			continue
		}
		chunks = append(chunks, parseChunkHash(key, hashes[i]))
	}

	// SMEMBERS order is arbitrary; ranking ties break on input order, so
	// candidates need a deterministic one.
	sort.Slice(chunks, func(a, b int) bool {
		if chunks[a].DocumentID != chunks[b].DocumentID {
			return chunks[a].DocumentID < chunks[b].DocumentID
		}
		return chunks[a].Index < chunks[b].Index
	})
	return chunks, nil
}

// CountDocuments returns the total number of stored documents.
func (r *Repo) CountDocuments(ctx context.Context) (int64, error) {
	n, err := r.store.SCard(ctx, docsKey)
	if err != nil {
		return 0, fmt.Errorf("scard %s: %w", docsKey, err)
	}
	return n, nil
}

// CountChunks returns the total number of stored chunks.
func (r *Repo) CountChunks(ctx context.Context) (int64, error) {
	n, err := r.store.SCard(ctx, allChunksKey)
	if err != nil {
		return 0, fmt.Errorf("scard %s: %w", allChunksKey, err)
	}
	return n, nil
}

// Dimension returns the persisted embedding dimension marker, 0 when unset.
func (r *Repo) Dimension(ctx context.Context) (int, error) {
	v, err := r.store.Get(ctx, dimKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s: %w", dimKey, err)
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, fmt.Errorf("parse dimension %q: %w", v, err)
	}
	return n, nil
}

// SetDimension persists the embedding dimension marker.
func (r *Repo) SetDimension(ctx context.Context, dim int) error {
	if err := r.store.Set(ctx, dimKey, []byte(strconv.Itoa(dim))); err != nil {
		return fmt.Errorf("set %s: %w", dimKey, err)
	}
	return nil
}
