package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
)

func TestChunkTextReconstructsExactly(t *testing.T) {
	paras := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		paras = append(paras, strings.Repeat("This Agreement is entered into by the parties. ", 3))
	}
	text := NormalizeText(strings.Join(paras, "\n\n"))

	spans := ChunkText(text, 200)
	require.NotEmpty(t, spans)

	var rebuilt strings.Builder
	prevEnd := 0
	for i, sp := range spans {
		require.Equal(t, i, sp.Index)
		require.Equal(t, prevEnd, sp.Start, "chunks must be contiguous")
		require.Greater(t, sp.End, sp.Start)
		require.LessOrEqual(t, sp.End-sp.Start, 200, "chunk exceeds max length")
		require.Equal(t, sp.End-sp.Start, len([]rune(sp.Text)))
		rebuilt.WriteString(sp.Text)
		prevEnd = sp.End
	}
	require.Equal(t, text, rebuilt.String())
}

func TestChunkTextPrefersParagraphBoundaries(t *testing.T) {
	text := "First paragraph about nothing much.\n\nSecond paragraph with more words in it."
	spans := ChunkText(text, 50)
	require.Len(t, spans, 2)
	require.True(t, strings.HasSuffix(spans[0].Text, "\n\n"))
}

func TestChunkTextHardCutsUnbrokenRun(t *testing.T) {
	text := strings.Repeat("x", 250)
	spans := ChunkText(text, 100)
	require.Len(t, spans, 3)
	for _, sp := range spans {
		require.LessOrEqual(t, len([]rune(sp.Text)), 100)
	}
}

func TestParsePlainText(t *testing.T) {
	chunks, status, err := Parse([]byte("Effective Date: 2024-01-01\n\nGoverning law: Delaware."), FormatText, 0)
	require.NoError(t, err)
	require.Equal(t, models.ParseParsed, status)
	require.NotEmpty(t, chunks)
	require.Equal(t, 0, chunks[0].Start)
}

func TestParseEmptyDocumentIsNotAFailure(t *testing.T) {
	chunks, status, err := Parse([]byte("   \n\t  "), FormatText, 0)
	require.NoError(t, err)
	require.Equal(t, models.ParseEmpty, status)
	require.Empty(t, chunks)
}

func TestParseHTMLExtractsTextNodes(t *testing.T) {
	raw := []byte(`<html><head><style>p{color:red}</style><script>var x=1;</script></head>` +
		`<body><h1>Service Agreement</h1><p>Total fee: $500.</p></body></html>`)
	chunks, status, err := Parse(raw, FormatHTML, 0)
	require.NoError(t, err)
	require.Equal(t, models.ParseParsed, status)
	joined := joinChunks(chunks)
	require.Contains(t, joined, "Service Agreement")
	require.Contains(t, joined, "Total fee: $500.")
	require.NotContains(t, joined, "var x=1")
	require.NotContains(t, joined, "color:red")
}

func TestParseDOCXParagraphRuns(t *testing.T) {
	raw := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`+
		`<w:body><w:p><w:r><w:t>Master Services Agreement</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Effective Date: January 1, 2024</w:t></w:r></w:p></w:body></w:document>`)
	chunks, status, err := Parse(raw, FormatDOCX, 0)
	require.NoError(t, err)
	require.Equal(t, models.ParseParsed, status)
	joined := joinChunks(chunks)
	require.Contains(t, joined, "Master Services Agreement")
	require.Contains(t, joined, "Effective Date: January 1, 2024")
}

func TestParseCorruptDOCX(t *testing.T) {
	_, status, err := Parse([]byte("not a zip archive"), FormatDOCX, 0)
	require.ErrorIs(t, err, ErrCorruptDocument)
	require.Equal(t, models.ParseFailed, status)
}

func TestParseCorruptPDF(t *testing.T) {
	_, status, err := Parse([]byte("%PDF-1.4 garbage"), FormatPDF, 0)
	require.ErrorIs(t, err, ErrCorruptDocument)
	require.Equal(t, models.ParseFailed, status)
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("contract.PDF")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, f)

	_, err = DetectFormat("scan.tiff")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func joinChunks(chunks []models.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
