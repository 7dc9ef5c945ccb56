// Package merge reconciles the heuristic and model extractors into a single
// record outcome per document/field pair.
package merge

import (
	"tabrev/internal/fieldvalue"
	"tabrev/internal/models"
)

type Result struct {
	Value      *string
	Confidence float64
	Citation   *models.Citation
	Source     models.Source
	State      models.RecordState
}

// Merge applies the reconciliation policy:
//   - both extractors agree (type-aware equality): MERGED, max confidence,
//     the model's citation when it has one;
//   - they disagree: the higher-confidence candidate wins, the model on a
//     tie;
//   - one produced a value: that one wins as-is;
//   - neither produced a value: UNRESOLVED with no value.
func Merge(def models.FieldDefinition, heuristic, model *models.Candidate) Result {
	switch {
	case heuristic == nil && model == nil:
		return Result{State: models.StateUnresolved}
	case heuristic == nil:
		return fromCandidate(def, model, models.SourceModel)
	case model == nil:
		return fromCandidate(def, heuristic, models.SourceHeuristic)
	}

	if fieldvalue.Equal(def, heuristic.Value, model.Value) {
		conf := heuristic.Confidence
		if model.Confidence > conf {
			conf = model.Confidence
		}
		citation := model.Citation
		if citation == nil {
			citation = heuristic.Citation
		}
		value := normalized(def, model.Value)
		return Result{
			Value:      &value,
			Confidence: conf,
			Citation:   citation,
			Source:     models.SourceMerged,
			State:      models.StateExtracted,
		}
	}

	if heuristic.Confidence > model.Confidence {
		return fromCandidate(def, heuristic, models.SourceHeuristic)
	}
	return fromCandidate(def, model, models.SourceModel)
}

func fromCandidate(def models.FieldDefinition, c *models.Candidate, source models.Source) Result {
	value := normalized(def, c.Value)
	return Result{
		Value:      &value,
		Confidence: c.Confidence,
		Citation:   c.Citation,
		Source:     source,
		State:      models.StateExtracted,
	}
}

func normalized(def models.FieldDefinition, raw string) string {
	if v, ok := fieldvalue.Normalize(def, raw); ok {
		return v
	}
	return raw
}
