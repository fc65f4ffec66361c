package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
)

type mockRepo struct {
	docs      map[string]domain.Document
	createErr error
	deleted   []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: make(map[string]domain.Document)}
}

func (m *mockRepo) Create(_ context.Context, doc *domain.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *mockRepo) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range m.docs {
		if filter.Matches(&d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockIngester struct {
	started []string
}

func (m *mockIngester) IngestAsync(docID string) {
	m.started = append(m.started, docID)
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockIngester) {
	t.Helper()
	repo := newMockRepo()
	ing := &mockIngester{}
	svc := New(repo, ing, t.TempDir(), 1<<20, zap.NewNop())
	return svc, repo, ing
}

func TestUpload_Accepted(t *testing.T) {
	svc, repo, ing := newTestService(t)

	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName:   "Syllabus.PDF",
		Size:       128,
		Content:    strings.NewReader("pdf bytes"),
		ProgramID:  "p1",
		CourseID:   "c1",
		UploadedBy: "admin",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if doc.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", doc.Status)
	}
	if doc.FileType != "pdf" {
		t.Errorf("file type = %s, want pdf (lowercased)", doc.FileType)
	}
	if doc.Title != "Syllabus" {
		t.Errorf("title = %q, want file name stem", doc.Title)
	}

	data, err := os.ReadFile(doc.StoragePath)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("stored content = %q", data)
	}

	if _, ok := repo.docs[doc.ID]; !ok {
		t.Error("record not created")
	}
	if len(ing.started) != 1 || ing.started[0] != doc.ID {
		t.Errorf("ingestion not triggered: %v", ing.started)
	}
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	svc, _, ing := newTestService(t)

	for _, name := range []string{"old.doc", "deck.ppt", "image.png", "noext"} {
		_, err := svc.Upload(context.Background(), UploadInput{
			FileName: name,
			Size:     10,
			Content:  strings.NewReader("x"),
		})
		if !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Errorf("%s: err = %v, want ErrUnsupportedFormat", name, err)
		}
	}
	if len(ing.started) != 0 {
		t.Errorf("ingestion triggered for rejected upload: %v", ing.started)
	}
}

func TestUpload_RejectsOversize(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName: "big.pdf",
		Size:     2 << 20,
		Content:  strings.NewReader("x"),
	})
	if !errors.Is(err, domain.ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestUpload_CreateFailureCleansFile(t *testing.T) {
	svc, repo, ing := newTestService(t)
	repo.createErr = errors.New("store down")

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName: "notes.txt",
		Size:     10,
		Content:  strings.NewReader("hello"),
	})
	if err == nil {
		t.Fatal("Upload should propagate storage error")
	}
	if len(ing.started) != 0 {
		t.Error("ingestion triggered despite create failure")
	}

	entries, _ := filepath.Glob(filepath.Join(svc.uploadDir, "*"))
	if len(entries) != 0 {
		t.Errorf("orphaned files left: %v", entries)
	}
}

func TestDelete_RemovesFileAndRecord(t *testing.T) {
	svc, repo, _ := newTestService(t)

	doc, err := svc.Upload(context.Background(), UploadInput{
		FileName: "notes.txt",
		Size:     5,
		Content:  strings.NewReader("hello"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(doc.StoragePath); !os.IsNotExist(err) {
		t.Error("stored file not removed")
	}
	if len(repo.deleted) != 1 {
		t.Error("record not deleted")
	}
}

func TestDelete_ToleratesMissingFile(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.docs["d1"] = domain.Document{ID: "d1", StoragePath: filepath.Join(svc.uploadDir, "gone.txt")}

	if err := svc.Delete(context.Background(), "d1"); err != nil {
		t.Fatalf("Delete should tolerate a missing file: %v", err)
	}
}

func TestDelete_Missing(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), "nope")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}
