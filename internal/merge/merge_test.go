package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
)

func strp(s string) *string { return &s }

func TestMergeAgreementAcrossDateFormats(t *testing.T) {
	def := models.FieldDefinition{Name: "Effective Date", Type: models.FieldDate}
	heuristic := &models.Candidate{Value: "2024-01-01", Confidence: 0.6}
	model := &models.Candidate{
		Value:      "01/01/2024",
		Confidence: 0.85,
		Citation:   &models.Citation{ChunkIndex: 2, Start: 10, End: 20},
	}

	res := Merge(def, heuristic, model)
	require.Equal(t, models.SourceMerged, res.Source)
	require.Equal(t, models.StateExtracted, res.State)
	require.NotNil(t, res.Value)
	require.Equal(t, "2024-01-01", *res.Value)
	require.InDelta(t, 0.85, res.Confidence, 1e-9)
	require.NotNil(t, res.Citation)
	require.Equal(t, 2, res.Citation.ChunkIndex)
}

func TestMergeDisagreementHigherConfidenceWins(t *testing.T) {
	def := models.FieldDefinition{Name: "Governing Law", Type: models.FieldString}
	heuristic := &models.Candidate{Value: "New York", Confidence: 0.9}
	model := &models.Candidate{Value: "Delaware", Confidence: 0.7}

	res := Merge(def, heuristic, model)
	require.Equal(t, models.SourceHeuristic, res.Source)
	require.Equal(t, "New York", *res.Value)
	require.InDelta(t, 0.9, res.Confidence, 1e-9)
}

func TestMergeTieGoesToModel(t *testing.T) {
	def := models.FieldDefinition{Name: "Governing Law", Type: models.FieldString}
	heuristic := &models.Candidate{Value: "New York", Confidence: 0.6}
	model := &models.Candidate{Value: "Delaware", Confidence: 0.6}

	res := Merge(def, heuristic, model)
	require.Equal(t, models.SourceModel, res.Source)
	require.Equal(t, "Delaware", *res.Value)
}

func TestMergeSingleCandidate(t *testing.T) {
	def := models.FieldDefinition{Name: "Contract Value", Type: models.FieldCurrency}

	res := Merge(def, &models.Candidate{Value: "$1,250.50", Confidence: 0.6}, nil)
	require.Equal(t, models.SourceHeuristic, res.Source)
	require.Equal(t, "USD 1250.50", *res.Value)

	res = Merge(def, nil, &models.Candidate{Value: "USD 99", Confidence: 0.8})
	require.Equal(t, models.SourceModel, res.Source)
	require.Equal(t, "USD 99.00", *res.Value)
}

func TestMergeNoCandidatesIsUnresolved(t *testing.T) {
	def := models.FieldDefinition{Name: "Termination Fee", Type: models.FieldCurrency}
	res := Merge(def, nil, nil)
	require.Equal(t, models.StateUnresolved, res.State)
	require.Nil(t, res.Value)
	require.Zero(t, res.Confidence)
	require.Empty(t, res.Source)
}
