package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
	"tabrev/internal/providers"
)

type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedProvider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	i := s.calls
	s.calls++
	info := providers.ProviderInfo{Name: "scripted", Model: "test"}
	if i < len(s.errs) && s.errs[i] != nil {
		return providers.CompletionResponse{}, info, s.errs[i]
	}
	if i < len(s.responses) {
		return providers.CompletionResponse{Text: s.responses[i]}, info, nil
	}
	return providers.CompletionResponse{}, info, errors.New("script exhausted")
}

func testChunks(texts ...string) []models.Chunk {
	out := make([]models.Chunk, 0, len(texts))
	offset := 0
	for i, t := range texts {
		out = append(out, models.Chunk{ChunkIndex: i, Start: offset, End: offset + len([]rune(t)), Text: t})
		offset += len([]rune(t))
	}
	return out
}

func newTestExtractor(p providers.InferenceProvider) *Extractor {
	e := NewExtractor(nil, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, BackoffFactor: 1}, time.Second, DefaultTopK)
	e.override = p
	return e
}

func TestExtractParsesCitedAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"value": "2024-01-01", "confidence": 0.92, "chunk_index": 0, "quote": "Effective Date: 2024-01-01"}`,
	}}
	def := models.FieldDefinition{Name: "Effective Date", Type: models.FieldDate}
	chunks := testChunks("This Agreement's Effective Date: 2024-01-01 as executed.")

	cand, ok, err := newTestExtractor(p).Extract(context.Background(), def, chunks, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-01-01", cand.Value)
	require.InDelta(t, 0.92, cand.Confidence, 1e-9)
	require.NotNil(t, cand.Citation)
	require.Equal(t, 0, cand.Citation.ChunkIndex)
}

func TestExtractNullValueMeansAbsent(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"value": null, "confidence": 0.0, "chunk_index": -1, "quote": ""}`,
	}}
	def := models.FieldDefinition{Name: "Termination Fee", Type: models.FieldCurrency}

	_, ok, err := newTestExtractor(p).Extract(context.Background(), def, testChunks("No relevant text."), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExtractCapsUncitedConfidence(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"value": "Delaware", "confidence": 0.95, "chunk_index": -1, "quote": ""}`,
	}}
	def := models.FieldDefinition{Name: "Governing Law", Type: models.FieldString}

	cand, ok, err := newTestExtractor(p).Extract(context.Background(), def, testChunks("Governed by Delaware law."), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, cand.Citation)
	require.InDelta(t, UncitedConfidenceCap, cand.Confidence, 1e-9)
}

func TestExtractDiscardsUnverifiableCitation(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"value": "Delaware", "confidence": 0.9, "chunk_index": 0, "quote": "text that appears nowhere"}`,
	}}
	def := models.FieldDefinition{Name: "Governing Law", Type: models.FieldString}

	cand, ok, err := newTestExtractor(p).Extract(context.Background(), def, testChunks("Governed by Delaware law."), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, cand.Citation)
	require.InDelta(t, UncitedConfidenceCap, cand.Confidence, 1e-9)
}

func TestExtractRetriesMalformedOutput(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		"Sure! Here is the result you asked for.",
		`Here it is: {"value": "Acme Corp", "confidence": 0.7, "chunk_index": 0, "quote": "Acme Corp"} hope that helps`,
	}}
	def := models.FieldDefinition{Name: "Counterparty", Type: models.FieldString}

	cand, ok, err := newTestExtractor(p).Extract(context.Background(), def, testChunks("Between Acme Corp and Beta LLC."), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Acme Corp", cand.Value)
	require.Equal(t, 2, p.calls)
}

func TestExtractExhaustionReturnsUnavailable(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		errors.New("503 service temporarily unavailable"),
		errors.New("503 service temporarily unavailable"),
		errors.New("503 service temporarily unavailable"),
	}}
	def := models.FieldDefinition{Name: "Counterparty", Type: models.FieldString}

	_, _, err := newTestExtractor(p).Extract(context.Background(), def, testChunks("irrelevant"), nil)
	require.ErrorIs(t, err, ErrInferenceUnavailable)
	require.Equal(t, 3, p.calls)
}

func TestExtractPermanentErrorDoesNotRetry(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("model not found")}}
	def := models.FieldDefinition{Name: "Counterparty", Type: models.FieldString}

	_, _, err := newTestExtractor(p).Extract(context.Background(), def, testChunks("irrelevant"), nil)
	require.ErrorIs(t, err, ErrInferenceUnavailable)
	require.Equal(t, 1, p.calls)
}

func TestSelectChunksKeepsPriorCitation(t *testing.T) {
	chunks := testChunks(
		"Filler one with nothing in it.",
		"Filler two with nothing in it.",
		"Filler three with nothing in it.",
		"Filler four with nothing in it.",
		"Filler five with nothing in it.",
		"Effective Date: 2024-01-01",
		"Filler six with nothing in it.",
	)
	def := models.FieldDefinition{Name: "Nothing Filler", Type: models.FieldString}
	prior := &models.Candidate{Citation: &models.Citation{ChunkIndex: 5}}

	selected := SelectChunks(def, chunks, prior, 3)
	require.Len(t, selected, 3)
	found := false
	for _, c := range selected {
		if c.ChunkIndex == 5 {
			found = true
		}
	}
	require.True(t, found)
}
