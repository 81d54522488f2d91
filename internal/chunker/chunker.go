package chunker

import "strings"

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 200
)

// defaultSeparators are tried in priority order: paragraph breaks first,
// then line breaks, then spaces, then raw character boundaries.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter splits raw text into bounded-size chunks with overlap.
// Splitting is hierarchical: it prefers the coarsest separator that keeps
// pieces under the chunk size, so chunks rarely break mid-word.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New creates a Splitter producing chunks of at most chunkSize characters
// where consecutive chunks overlap by roughly overlap characters.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split splits text into chunks. Empty or whitespace-only text yields no
// chunks; text no longer than the chunk size yields exactly one chunk equal
// to the input. Deterministic for identical input and parameters.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	return s.split(text, s.separators)
}

// split recursively divides text using the first separator present in it,
// then merges the pieces back into overlapping windows. Pieces still longer
// than the chunk size are re-split with the remaining, finer separators.
func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, cand := range separators {
		if cand == "" || strings.Contains(text, cand) {
			sep = cand
			rest = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, sep)

	var final []string
	var good []string
	for _, piece := range splits {
		if len(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, sep)...)
	}
	return final
}

// merge packs pieces into chunks not exceeding the chunk size. When a chunk
// is emitted, pieces are dropped from the front of the window until its total
// length is within the overlap budget, so the next chunk starts with the tail
// of the previous one.
func (s *Splitter) merge(splits []string, sep string) []string {
	sepLen := len(sep)

	var chunks []string
	var window []string
	total := 0

	for _, piece := range splits {
		pieceLen := len(piece)
		joinLen := 0
		if len(window) > 0 {
			joinLen = sepLen
		}

		if total+pieceLen+joinLen > s.chunkSize && len(window) > 0 {
			if chunk := joinTrimmed(window, sep); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.overlap || (total+pieceLen+joinLen > s.chunkSize && total > 0) {
				total -= len(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}

		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, piece)
		total += pieceLen
	}

	if chunk := joinTrimmed(window, sep); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitOn splits text by sep, dropping empty pieces. The empty separator
// splits into individual runes, the last-resort boundary.
func splitOn(text, sep string) []string {
	if sep == "" {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	var parts []string
	for _, p := range strings.Split(text, sep) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func joinTrimmed(parts []string, sep string) string {
	return strings.TrimSpace(strings.Join(parts, sep))
}
