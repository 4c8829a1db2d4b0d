package chunking

import (
	"strings"
	"testing"
)

func TestSplitKeepsSentencesWhole(t *testing.T) {
	s := NewSplitter(40, 0)
	text := "The beneficiary won a national award. Their work was cited widely. Experts praised it."

	chunks := s.Split(text)
	want := []string{
		"The beneficiary won a national award.",
		"Their work was cited widely.",
		"Experts praised it.",
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitPacksShortSentencesTogether(t *testing.T) {
	s := NewSplitter(40, 0)
	text := "award one\naward two\naward three"

	chunks := s.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "award one award two award three" {
		t.Fatalf("unexpected chunk %q", chunks[0])
	}
}

func TestSplitCarriesOverlapTail(t *testing.T) {
	s := NewSplitter(40, 8)
	text := "The panel selected the winning entry. Judges agreed on it."

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	tail := chunks[0][len(chunks[0])-8:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Fatalf("chunk 1 does not carry the tail of chunk 0: %q then %q", chunks[0], chunks[1])
	}
}

func TestSplitWindowsOversizedSentence(t *testing.T) {
	s := NewSplitter(10, 0)
	chunks := s.Split("abcdefghijklmnopqrstuvwxyz")

	want := []string{"abcdefghij", "klmnopqrst", "uvwxyz"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitOverlapsAdjacentWindows(t *testing.T) {
	s := NewSplitter(10, 4)
	text := strings.Repeat("abcdef", 5)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-4:]
		if !strings.HasPrefix(chunks[i], prevTail) {
			t.Fatalf("chunk %d does not overlap previous: %q then %q", i, chunks[i-1], chunks[i])
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(100, 10)
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := s.Split("  \n  "); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace, got %v", got)
	}
}

func TestNewSplitterClampsBadOverlap(t *testing.T) {
	s := NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to 25, got %d", s.Overlap)
	}
	s = NewSplitter(0, -1)
	if s.ChunkSize != 900 || s.Overlap != 0 {
		t.Fatalf("expected defaults 900/0, got %d/%d", s.ChunkSize, s.Overlap)
	}
}
