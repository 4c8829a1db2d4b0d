package pages

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

type storageStub struct {
	objects map[string][]byte
}

func (s *storageStub) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = raw
	return nil
}

func (s *storageStub) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.objects[key])), nil
}

func TestPagesReadsPlainTextAsSinglePage(t *testing.T) {
	storage := &storageStub{objects: map[string][]byte{
		"doc-1_resume.txt": []byte("  Publications and awards.  "),
	}}
	reader := NewReader(storage)

	pages, err := reader.Pages(context.Background(), &domain.Document{
		ID: "doc-1", StoragePath: "doc-1_resume.txt", Filename: "resume.txt",
	})
	if err != nil {
		t.Fatalf("Pages() error = %v", err)
	}
	if len(pages) != 1 || pages[0] != "Publications and awards." {
		t.Fatalf("unexpected pages %q", pages)
	}
}

func TestPagesRejectsUnknownBinary(t *testing.T) {
	storage := &storageStub{objects: map[string][]byte{
		"doc-1_scan.bin": {0x00, 0xFF, 0x13, 0x37},
	}}
	reader := NewReader(storage)

	_, err := reader.Pages(context.Background(), &domain.Document{
		ID: "doc-1", StoragePath: "doc-1_scan.bin", Filename: "scan.bin",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}

func TestPagesRejectsCorruptPDF(t *testing.T) {
	storage := &storageStub{objects: map[string][]byte{
		"doc-1_broken.pdf": []byte("%PDF-1.7 garbage"),
	}}
	reader := NewReader(storage)

	_, err := reader.Pages(context.Background(), &domain.Document{
		ID: "doc-1", StoragePath: "doc-1_broken.pdf", Filename: "broken.pdf",
	})
	if err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
