package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
)

func strp(s string) *string { return &s }

var evalNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func TestEvaluateEmptyScope(t *testing.T) {
	res := Evaluate("proj-1", nil, nil, nil, evalNow)
	require.Zero(t, res.ProjectAccuracy)
	require.Zero(t, res.ProjectSimilarity)
	require.Zero(t, res.TerminalRecords)
	require.Empty(t, res.PerField)
	require.Empty(t, res.PerDocument)
}

func TestEvaluateSkipsNonTerminalRecords(t *testing.T) {
	docs := []models.Document{{DocumentID: "doc-a", Filename: "a.pdf"}}
	fields := []models.FieldDefinition{{FieldID: "fld-1", Name: "Effective Date", Type: models.FieldDate}}
	records := []models.ExtractionRecord{
		{DocumentID: "doc-a", FieldID: "fld-1", State: models.StateExtracted, Value: strp("2024-01-01")},
		{DocumentID: "doc-a", FieldID: "fld-1", State: models.StateUnderReview, Value: strp("2024-01-01")},
	}

	res := Evaluate("proj-1", docs, fields, records, evalNow)
	require.Zero(t, res.TerminalRecords)
	require.Equal(t, 2, res.TotalRecords)
	require.Empty(t, res.PerDocument)
}

func TestEvaluateHalfAccuracy(t *testing.T) {
	docs := []models.Document{{DocumentID: "doc-a", Filename: "a.pdf"}}
	fields := []models.FieldDefinition{
		{FieldID: "fld-1", Name: "Effective Date", Type: models.FieldDate},
		{FieldID: "fld-2", Name: "Governing Law", Type: models.FieldString},
	}
	records := []models.ExtractionRecord{
		{DocumentID: "doc-a", FieldID: "fld-1", State: models.StateApproved,
			Value: strp("2024-01-01"), MachineValue: strp("2024-01-01")},
		{DocumentID: "doc-a", FieldID: "fld-2", State: models.StateRejected,
			Value: strp("New York"), MachineValue: strp("New York")},
	}

	res := Evaluate("proj-1", docs, fields, records, evalNow)
	require.Equal(t, 2, res.TerminalRecords)
	require.InDelta(t, 0.5, res.ProjectAccuracy, 1e-9)

	require.Len(t, res.PerField, 2)
	require.Equal(t, "Effective Date", res.PerField[0].FieldName)
	require.InDelta(t, 1.0, res.PerField[0].Accuracy, 1e-9)
	require.Equal(t, "Governing Law", res.PerField[1].FieldName)
	require.Zero(t, res.PerField[1].Accuracy)
}

func TestEvaluateOverrideComparesAcrossFormats(t *testing.T) {
	docs := []models.Document{{DocumentID: "doc-a", Filename: "a.pdf"}}
	fields := []models.FieldDefinition{{FieldID: "fld-1", Name: "Effective Date", Type: models.FieldDate}}
	records := []models.ExtractionRecord{
		// Reviewer retyped the same date in another format: still a match.
		{DocumentID: "doc-a", FieldID: "fld-1", State: models.StateManualOverride,
			Value: strp("01/01/2024"), MachineValue: strp("2024-01-01")},
	}

	res := Evaluate("proj-1", docs, fields, records, evalNow)
	require.InDelta(t, 1.0, res.ProjectAccuracy, 1e-9)
	require.InDelta(t, 1.0, res.ProjectSimilarity, 1e-9)
}

func TestEvaluateOverrideSimilarityIsPartial(t *testing.T) {
	docs := []models.Document{{DocumentID: "doc-a", Filename: "a.pdf"}}
	fields := []models.FieldDefinition{{FieldID: "fld-1", Name: "Counterparty", Type: models.FieldString}}
	records := []models.ExtractionRecord{
		{DocumentID: "doc-a", FieldID: "fld-1", State: models.StateManualOverride,
			Value: strp("Acme Corporation"), MachineValue: strp("Acme Corp")},
	}

	res := Evaluate("proj-1", docs, fields, records, evalNow)
	require.Zero(t, res.ProjectAccuracy)
	require.Greater(t, res.ProjectSimilarity, 0.5)
	require.Less(t, res.ProjectSimilarity, 1.0)
}

func TestEvaluateDocumentsWeighEqually(t *testing.T) {
	docs := []models.Document{
		{DocumentID: "doc-a", Filename: "a.pdf"},
		{DocumentID: "doc-b", Filename: "b.pdf"},
	}
	fields := []models.FieldDefinition{
		{FieldID: "fld-1", Name: "F1", Type: models.FieldString},
		{FieldID: "fld-2", Name: "F2", Type: models.FieldString},
		{FieldID: "fld-3", Name: "F3", Type: models.FieldString},
	}
	approved := func(doc, fld string) models.ExtractionRecord {
		return models.ExtractionRecord{DocumentID: doc, FieldID: fld, State: models.StateApproved,
			Value: strp("x"), MachineValue: strp("x")}
	}
	rejected := func(doc, fld string) models.ExtractionRecord {
		return models.ExtractionRecord{DocumentID: doc, FieldID: fld, State: models.StateRejected,
			Value: strp("x"), MachineValue: strp("x")}
	}
	// doc-a: three approved records. doc-b: one rejected record.
	records := []models.ExtractionRecord{
		approved("doc-a", "fld-1"), approved("doc-a", "fld-2"), approved("doc-a", "fld-3"),
		rejected("doc-b", "fld-1"),
	}

	res := Evaluate("proj-1", docs, fields, records, evalNow)
	// (1.0 + 0.0) / 2 documents, not 3/4 records.
	require.InDelta(t, 0.5, res.ProjectAccuracy, 1e-9)
}
