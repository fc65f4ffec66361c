package document

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/innovorex/campuskb/internal/domain"
)

const timeLayout = time.RFC3339Nano

// docHashFields converts a domain Document into a flat map[string]string for HSET.
func docHashFields(doc *domain.Document) map[string]string {
	return map[string]string{
		"title":          doc.Title,
		"file_name":      doc.FileName,
		"file_type":      doc.FileType,
		"size":           strconv.FormatInt(doc.Size, 10),
		"storage_path":   doc.StoragePath,
		"program_id":     doc.ProgramID,
		"course_id":      doc.CourseID,
		"uploaded_by":    doc.UploadedBy,
		"uploaded_at":    doc.UploadedAt.UTC().Format(timeLayout),
		"status":         string(doc.Status),
		"chunk_count":    strconv.Itoa(doc.ChunkCount),
		"failure_reason": doc.FailureReason,
	}
}

// parseDocHash converts a flat hash map back into a domain Document.
func parseDocHash(id string, m map[string]string) domain.Document {
	size, _ := strconv.ParseInt(m["size"], 10, 64)
	chunkCount, _ := strconv.Atoi(m["chunk_count"])
	uploadedAt, _ := time.Parse(timeLayout, m["uploaded_at"])

	return domain.Document{
		ID:            id,
		Title:         m["title"],
		FileName:      m["file_name"],
		FileType:      m["file_type"],
		Size:          size,
		StoragePath:   m["storage_path"],
		ProgramID:     m["program_id"],
		CourseID:      m["course_id"],
		UploadedBy:    m["uploaded_by"],
		UploadedAt:    uploadedAt,
		Status:        domain.Status(m["status"]),
		ChunkCount:    chunkCount,
		FailureReason: m["failure_reason"],
	}
}

// chunkHashFields converts a domain Chunk into a flat map[string]string for HSET.
// The embedding is stored as packed binary rather than JSON to keep the hash compact.
func chunkHashFields(c *domain.Chunk) map[string]string {
	return map[string]string{
		"document_id":    c.DocumentID,
		"index":          strconv.Itoa(c.Index),
		"content":        c.Content,
		"program_id":     c.ProgramID,
		"course_id":      c.CourseID,
		"document_title": c.DocumentTitle,
		"embedding":      vectorToBytes(c.Embedding),
	}
}

// parseChunkHash converts a flat hash map back into a domain Chunk.
func parseChunkHash(key string, m map[string]string) domain.Chunk {
	idx, _ := strconv.Atoi(m["index"])
	return domain.Chunk{
		ID:            key,
		DocumentID:    m["document_id"],
		Index:         idx,
		Content:       m["content"],
		ProgramID:     m["program_id"],
		CourseID:      m["course_id"],
		DocumentTitle: m["document_title"],
		Embedding:     bytesToVector(m["embedding"]),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func docKey(id string) string {
	return domain.KeyPrefix + "doc:" + id
}

func chunkKey(docID string, idx int) string {
	return fmt.Sprintf("%schunk:%s:%d", domain.KeyPrefix, docID, idx)
}

func courseChunksKey(courseID string) string {
	return domain.KeyPrefix + "course_chunks:" + courseID
}

const (
	docsKey      = domain.KeyPrefix + "docs"
	allChunksKey = domain.KeyPrefix + "chunks"
	dimKey       = domain.KeyPrefix + "dim"
)
