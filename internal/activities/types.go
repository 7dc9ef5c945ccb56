package activities

import "tabrev/internal/models"

type ResolveScopeInput struct {
	ProjectID   string   `json:"project_id"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	FieldIDs    []string `json:"field_ids,omitempty"`
}

type Pair struct {
	DocumentID string `json:"document_id"`
	FieldID    string `json:"field_id"`
}

type ResolveScopeOutput struct {
	Pairs []Pair `json:"pairs"`
}

type ExtractPairInput struct {
	DocumentID string `json:"document_id"`
	FieldID    string `json:"field_id"`
}

type ExtractPairOutput struct {
	RecordID string             `json:"record_id"`
	State    models.RecordState `json:"state"`
	Failed   bool               `json:"failed"`
}

type MarkTaskRunningInput struct {
	TaskID     string `json:"task_id"`
	TotalPairs int    `json:"total_pairs"`
}

type UpdateTaskProgressInput struct {
	TaskID string `json:"task_id"`
	Done   int    `json:"done"`
	Failed int    `json:"failed"`
}

type FinishTaskInput struct {
	TaskID       string           `json:"task_id"`
	State        models.TaskState `json:"state"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

type WriteTaskSummaryInput struct {
	ProjectID string         `json:"project_id"`
	TaskID    string         `json:"task_id"`
	Summary   map[string]any `json:"summary"`
}

type WriteTaskSummaryOutput struct {
	Path string `json:"path"`
}
