// Package parser turns raw document bytes into a normalized text stream
// segmented into offset-addressable chunks. Downstream extractors never see
// format-specific structure; PDF, DOCX, HTML and plain text all reduce to
// the same chunk sequence.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"tabrev/internal/models"
	"tabrev/internal/util"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("corrupt document")
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

const DefaultMaxChunkLen = 1200

// DetectFormat maps a filename extension to a supported format.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	case "html", "htm":
		return FormatHTML, nil
	case "txt", "text", "md":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// Parse extracts text from raw, normalizes it and splits it into chunks of
// at most maxChunkLen runes. A document with no extractable text yields
// zero chunks and ParseEmpty rather than an error; extraction then proceeds
// trivially with every field unresolved.
func Parse(raw []byte, format Format, maxChunkLen int) ([]models.Chunk, models.ParseStatus, error) {
	if maxChunkLen <= 0 {
		maxChunkLen = DefaultMaxChunkLen
	}
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(raw)
	case FormatDOCX:
		text, err = extractDOCX(raw)
	case FormatHTML:
		text, err = extractHTML(raw)
	case FormatText:
		if !utf8.Valid(raw) {
			return nil, models.ParseFailed, fmt.Errorf("%w: invalid utf-8 text", ErrCorruptDocument)
		}
		text = string(raw)
	default:
		return nil, models.ParseFailed, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, models.ParseFailed, err
	}

	text = NormalizeText(text)
	if text == "" {
		return nil, models.ParseEmpty, nil
	}

	spans := ChunkText(text, maxChunkLen)
	chunks := make([]models.Chunk, 0, len(spans))
	for _, sp := range spans {
		chunks = append(chunks, models.Chunk{
			ChunkIndex: sp.Index,
			Start:      sp.Start,
			End:        sp.End,
			Text:       sp.Text,
		})
	}
	return chunks, models.ParseParsed, nil
}

// NormalizeText is the single text representation every format reduces to:
// control characters stripped, CRLF folded to LF, outer whitespace trimmed.
// Chunk offsets are relative to this exact string.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = util.SanitizeText(s)
	return strings.TrimSpace(s)
}
