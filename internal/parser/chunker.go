package parser

import "strings"

// Span is one chunk of the normalized text. Offsets are rune positions;
// concatenating all spans in index order reproduces the input exactly.
type Span struct {
	Index int
	Start int
	End   int
	Text  string
}

// ChunkText splits text into spans of at most maxLen runes. Splits prefer
// paragraph breaks, then line breaks, then sentence ends, then word
// boundaries; only pathological unbroken runs are cut mid-word. Unlike an
// overlapping retrieval chunker, spans never overlap and leave no gaps, so
// citations into chunk text stay stable and the document reconstructs
// byte-for-byte.
func ChunkText(text string, maxLen int) []Span {
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}
	runes := []rune(text)
	spans := make([]Span, 0, len(runes)/maxLen+1)
	start := 0
	for start < len(runes) {
		end := start + maxLen
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + splitPoint(runes[start:end])
		}
		spans = append(spans, Span{
			Index: len(spans),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		start = end
	}
	return spans
}

// splitPoint returns the cut position within window (0 < pos <= len) so the
// boundary characters stay with the preceding span.
func splitPoint(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(s, sep); idx > 0 {
			return len([]rune(s[:idx+len(sep)]))
		}
	}
	return len(window)
}
