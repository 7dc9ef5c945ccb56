package heuristics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
)

func chunksOf(texts ...string) []models.Chunk {
	out := make([]models.Chunk, 0, len(texts))
	offset := 0
	for i, t := range texts {
		out = append(out, models.Chunk{ChunkIndex: i, Start: offset, End: offset + len([]rune(t)), Text: t})
		offset += len([]rune(t))
	}
	return out
}

func TestMatchHintPattern(t *testing.T) {
	def := models.FieldDefinition{
		Name: "Effective Date",
		Type: models.FieldDate,
		Hint: `Effective Date:\s*(\d{4}-\d{2}-\d{2})`,
	}
	chunks := chunksOf("Preamble text.\n\n", "Effective Date: 2024-01-01\n\nSignatures follow.")

	cand, ok := Match(def, chunks)
	require.True(t, ok)
	require.Equal(t, "2024-01-01", cand.Value)
	require.Equal(t, ConfidenceHint, cand.Confidence)
	require.NotNil(t, cand.Citation)
	require.Equal(t, 1, cand.Citation.ChunkIndex)
	require.Equal(t, "2024-01-01", chunks[1].Text[cand.Citation.Start:cand.Citation.End])
}

func TestMatchFirstInDocumentOrderWins(t *testing.T) {
	def := models.FieldDefinition{Name: "Any Date", Type: models.FieldDate}
	chunks := chunksOf("Signed 2023-05-05 in duplicate.", "Also dated 2024-09-09.")

	cand, ok := Match(def, chunks)
	require.True(t, ok)
	require.Equal(t, "2023-05-05", cand.Value)
	require.Equal(t, ConfidenceTypeMatch, cand.Confidence)

	// Same input, same output.
	again, ok := Match(def, chunks)
	require.True(t, ok)
	require.Equal(t, cand, again)
}

func TestMatchLabelProximityFallback(t *testing.T) {
	def := models.FieldDefinition{Name: "Governing Law", Type: models.FieldString}
	chunks := chunksOf("Governing Law: State of Delaware\nVenue: Wilmington")

	cand, ok := Match(def, chunks)
	require.True(t, ok)
	require.Equal(t, "State of Delaware", cand.Value)
	require.Equal(t, ConfidenceProximity, cand.Confidence)
}

func TestMatchCurrencyTypePattern(t *testing.T) {
	def := models.FieldDefinition{Name: "Contract Value", Type: models.FieldCurrency}
	chunks := chunksOf("The total consideration is $1,250,000.00 payable net 30.")

	cand, ok := Match(def, chunks)
	require.True(t, ok)
	require.Equal(t, "$1,250,000.00", cand.Value)
}

func TestMatchNoEvidence(t *testing.T) {
	def := models.FieldDefinition{Name: "Termination Clause", Type: models.FieldString}
	_, ok := Match(def, chunksOf("Nothing relevant here."))
	require.False(t, ok)
}

func TestMatchInvalidHintFallsThrough(t *testing.T) {
	def := models.FieldDefinition{Name: "Closing Date", Type: models.FieldDate, Hint: `([unclosed`}
	chunks := chunksOf("Closing occurs on 2024-06-30.")

	cand, ok := Match(def, chunks)
	require.True(t, ok)
	require.Equal(t, "2024-06-30", cand.Value)
	require.Equal(t, ConfidenceTypeMatch, cand.Confidence)
}
