// Package table assembles the project comparison grid: one row per
// document, one column per field, every cell present even when extraction
// has not run for the pair yet.
package table

import (
	"sort"

	"tabrev/internal/models"
)

type Cell struct {
	DocumentID string             `json:"document_id"`
	FieldID    string             `json:"field_id"`
	Value      string             `json:"value"`
	State      models.RecordState `json:"state"`
	Confidence float64            `json:"confidence"`
	Source     models.Source      `json:"source,omitempty"`
	Citation   *models.Citation   `json:"citation,omitempty"`
}

type Row struct {
	Document models.Document `json:"document"`
	Cells    []Cell          `json:"cells"`
}

// Grid is rectangular: every row has exactly one cell per field, in field
// order.
type Grid struct {
	ProjectID string                   `json:"project_id"`
	Fields    []models.FieldDefinition `json:"fields"`
	Rows      []Row                    `json:"rows"`
}

// Build produces the grid for a project. Pairs with no extraction record
// yet appear as PENDING cells with no value, so the grid shape only depends
// on the document and field sets.
func Build(projectID string, docs []models.Document, fields []models.FieldDefinition, records []models.ExtractionRecord) Grid {
	docsSorted := append([]models.Document(nil), docs...)
	sort.Slice(docsSorted, func(i, j int) bool { return docsSorted[i].Filename < docsSorted[j].Filename })
	fieldsSorted := append([]models.FieldDefinition(nil), fields...)
	sort.Slice(fieldsSorted, func(i, j int) bool { return fieldsSorted[i].Name < fieldsSorted[j].Name })

	byPair := make(map[[2]string]models.ExtractionRecord, len(records))
	for _, r := range records {
		byPair[[2]string{r.DocumentID, r.FieldID}] = r
	}

	grid := Grid{ProjectID: projectID, Fields: fieldsSorted, Rows: make([]Row, 0, len(docsSorted))}
	for _, doc := range docsSorted {
		row := Row{Document: doc, Cells: make([]Cell, 0, len(fieldsSorted))}
		for _, field := range fieldsSorted {
			cell := Cell{DocumentID: doc.DocumentID, FieldID: field.FieldID, State: models.StatePending}
			if rec, ok := byPair[[2]string{doc.DocumentID, field.FieldID}]; ok {
				cell.State = rec.State
				cell.Confidence = rec.Confidence
				cell.Source = rec.Source
				cell.Citation = rec.Citation
				cell.Value = displayValue(rec)
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// displayValue prefers the reviewer-confirmed value once a review pass has
// finished and the machine value before that.
func displayValue(rec models.ExtractionRecord) string {
	if rec.State.Terminal() {
		if rec.Value != nil {
			return *rec.Value
		}
		return ""
	}
	if rec.MachineValue != nil {
		return *rec.MachineValue
	}
	if rec.Value != nil {
		return *rec.Value
	}
	return ""
}
