// Package chunking prepares extracted document text for embedding.
// Petition evidence is prose (recommendation letters, award citations,
// article excerpts), so chunks break on sentence boundaries where
// possible and carry a short tail of the previous chunk as retrieval
// context.
package chunking

import "strings"

type Splitter struct {
	ChunkSize int // maximum chunk length in runes
	Overlap   int // tail context carried into the next chunk, in runes
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into chunks of at most ChunkSize runes. Sentences
// stay whole unless a single sentence exceeds ChunkSize, in which case
// it is windowed the way a scanned table or run-on extraction requires.
func (s *Splitter) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		out     []string
		current []rune
		fresh   bool // current holds material not yet emitted
	)
	emit := func() {
		if !fresh {
			return
		}
		if chunk := strings.TrimSpace(string(current)); chunk != "" {
			out = append(out, chunk)
		}
		if s.Overlap > 0 && len(current) > s.Overlap {
			current = append(current[:0], current[len(current)-s.Overlap:]...)
		} else {
			current = current[:0]
		}
		fresh = false
	}

	for _, sentence := range sentences {
		sr := []rune(sentence)
		if len(sr) > s.ChunkSize {
			emit()
			out = append(out, s.window(sr)...)
			current = current[:0]
			fresh = false
			continue
		}
		if len(current) > 0 && len(current)+1+len(sr) > s.ChunkSize {
			emit()
			// The carried tail may still leave no room for the sentence.
			if len(current)+1+len(sr) > s.ChunkSize {
				current = current[:0]
			}
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, sr...)
		fresh = true
	}
	emit()
	return out
}

// window hard-splits an oversized sentence into overlapping rune
// windows.
func (s *Splitter) window(runes []rune) []string {
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitSentences cuts on terminal punctuation and newlines. Evidence
// text is either prose or line-oriented lists; both break cleanly here.
func splitSentences(text string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}
	for _, r := range text {
		if r == '\n' {
			flush()
			continue
		}
		cur = append(cur, r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return out
}
