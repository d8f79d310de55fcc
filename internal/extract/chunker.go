// File path: internal/extract/chunker.go
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the character budget handed to one extraction call.
	DefaultChunkSize = 10000
	// DefaultChunkOverlap is carried between adjacent chunks to keep context.
	DefaultChunkOverlap = 1000
)

var (
	runsOfBlanks   = regexp.MustCompile(`[ \t]+`)
	runsOfNewlines = regexp.MustCompile(`\n{3,}`)
)

// PreprocessText cleans OCR output before chunking: collapses runs of blanks,
// drops non-printable characters, and squeezes excessive blank lines.
func PreprocessText(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	cleaned := runsOfBlanks.ReplaceAllString(b.String(), " ")
	cleaned = runsOfNewlines.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// SplitTextWithOverlap splits long text into overlapping chunks. When a chunk
// boundary falls mid-document it backs off to a paragraph break inside the
// last 20% of the window, then to a sentence end, before cutting at the hard
// limit. Overlap keeps the tail of each chunk visible to the next extraction
// call.
func SplitTextWithOverlap(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			searchStart := start + chunkSize*8/10
			if cut := strings.LastIndex(text[searchStart:end], "\n\n"); cut != -1 {
				end = searchStart + cut
			} else if cut := lastSentenceEnd(text[searchStart:end]); cut != -1 {
				end = searchStart + cut + 1
			}
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			// Guarantee forward progress even for degenerate overlaps.
			next = end
		}
		start = next
	}
	return chunks
}

func lastSentenceEnd(segment string) int {
	best := -1
	for _, mark := range []string{". ", "? ", "! "} {
		if idx := strings.LastIndex(segment, mark); idx > best {
			best = idx
		}
	}
	return best
}
