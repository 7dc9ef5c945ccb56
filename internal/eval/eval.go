// Package eval scores machine extraction against reviewer outcomes. Only
// records whose review pass has finished count; everything else is still in
// flight and would bias the numbers.
package eval

import (
	"sort"
	"time"

	"github.com/agext/levenshtein"

	"tabrev/internal/fieldvalue"
	"tabrev/internal/models"
)

type recordScore struct {
	documentID string
	fieldID    string
	accuracy   float64
	similarity float64
}

// Evaluate computes exact-match accuracy and edit-distance similarity over
// the project's terminal records. APPROVED confirms the machine value;
// REJECTED counts as a full mismatch; MANUAL_OVERRIDE compares the machine
// value against the reviewer's replacement.
func Evaluate(projectID string, docs []models.Document, fields []models.FieldDefinition, records []models.ExtractionRecord, now time.Time) models.EvaluationResult {
	fieldByID := make(map[string]models.FieldDefinition, len(fields))
	for _, f := range fields {
		fieldByID[f.FieldID] = f
	}

	scores := make([]recordScore, 0, len(records))
	terminal := 0
	for _, rec := range records {
		if !rec.State.Terminal() {
			continue
		}
		terminal++
		scores = append(scores, scoreRecord(fieldByID[rec.FieldID], rec))
	}

	result := models.EvaluationResult{
		ProjectID:       projectID,
		TerminalRecords: terminal,
		TotalRecords:    len(records),
		GeneratedAt:     now,
	}
	if len(scores) == 0 {
		return result
	}

	result.PerField = rollupFields(fields, scores)
	result.PerDocument = rollupDocuments(docs, scores)

	// The project roll-up averages the per-document aggregates so every
	// document weighs the same regardless of how many fields resolved in it.
	var accSum, simSum float64
	for _, d := range result.PerDocument {
		accSum += d.Accuracy
		simSum += d.Similarity
	}
	if n := len(result.PerDocument); n > 0 {
		result.ProjectAccuracy = accSum / float64(n)
		result.ProjectSimilarity = simSum / float64(n)
	}
	return result
}

func scoreRecord(def models.FieldDefinition, rec models.ExtractionRecord) recordScore {
	score := recordScore{documentID: rec.DocumentID, fieldID: rec.FieldID}
	switch rec.State {
	case models.StateApproved:
		score.accuracy = 1
		score.similarity = 1
	case models.StateRejected:
		// The reviewer judged the machine value wrong without a replacement.
	case models.StateManualOverride:
		machine := ""
		if rec.MachineValue != nil {
			machine = *rec.MachineValue
		}
		final := ""
		if rec.Value != nil {
			final = *rec.Value
		}
		if machine != "" && fieldvalue.Equal(def, machine, final) {
			score.accuracy = 1
		}
		score.similarity = levenshtein.Similarity(canonical(def, machine), canonical(def, final), nil)
	}
	return score
}

func canonical(def models.FieldDefinition, raw string) string {
	if v, ok := fieldvalue.Normalize(def, raw); ok {
		return v
	}
	return raw
}

func rollupFields(fields []models.FieldDefinition, scores []recordScore) []models.FieldMetrics {
	byField := make(map[string]*models.FieldMetrics)
	for _, f := range fields {
		byField[f.FieldID] = &models.FieldMetrics{FieldID: f.FieldID, FieldName: f.Name}
	}
	for _, s := range scores {
		m, ok := byField[s.fieldID]
		if !ok {
			m = &models.FieldMetrics{FieldID: s.fieldID}
			byField[s.fieldID] = m
		}
		m.Records++
		m.Accuracy += s.accuracy
		m.Similarity += s.similarity
	}
	out := make([]models.FieldMetrics, 0, len(byField))
	for _, m := range byField {
		if m.Records == 0 {
			continue
		}
		m.Accuracy /= float64(m.Records)
		m.Similarity /= float64(m.Records)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldName < out[j].FieldName })
	return out
}

func rollupDocuments(docs []models.Document, scores []recordScore) []models.DocumentMetrics {
	byDoc := make(map[string]*models.DocumentMetrics)
	for _, d := range docs {
		byDoc[d.DocumentID] = &models.DocumentMetrics{DocumentID: d.DocumentID, Filename: d.Filename}
	}
	for _, s := range scores {
		m, ok := byDoc[s.documentID]
		if !ok {
			m = &models.DocumentMetrics{DocumentID: s.documentID}
			byDoc[s.documentID] = m
		}
		m.Records++
		m.Accuracy += s.accuracy
		m.Similarity += s.similarity
	}
	out := make([]models.DocumentMetrics, 0, len(byDoc))
	for _, m := range byDoc {
		if m.Records == 0 {
			continue
		}
		m.Accuracy /= float64(m.Records)
		m.Similarity /= float64(m.Records)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}
