package pages

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

// Reader extracts per-page text from stored evidence documents. PDFs
// are read page by page; UTF-8 text files count as a single page.
type Reader struct {
	storage ports.ObjectStorage
}

func NewReader(storage ports.ObjectStorage) *Reader {
	return &Reader{storage: storage}
}

func (r *Reader) Pages(ctx context.Context, doc *domain.Document) ([]string, error) {
	src, err := r.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	if isPDF(raw) {
		return pdfPages(raw, doc.Filename)
	}
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages",
			fmt.Errorf("unsupported binary format: %s", doc.Filename))
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

func isPDF(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("%PDF-"))
}

func pdfPages(raw []byte, filename string) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", filename, err)
	}

	total := reader.NumPage()
	out := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			out = append(out, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d of %s: %w", i, filename, err)
		}
		out = append(out, strings.TrimSpace(text))
	}
	return out, nil
}
