package workflows

type ExtractionRunInput struct {
	TaskID      string   `json:"task_id"`
	ProjectID   string   `json:"project_id"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	FieldIDs    []string `json:"field_ids,omitempty"`
	MaxParallel int      `json:"max_parallel"`
}

type ExtractionRunProgress struct {
	TaskID     string            `json:"task_id"`
	ProjectID  string            `json:"project_id"`
	Total      int               `json:"total"`
	Done       int               `json:"done"`
	Failed     int               `json:"failed"`
	PerPair    map[string]string `json:"per_pair"`
	Cancelled  bool              `json:"cancelled"`
	FinalState string            `json:"final_state,omitempty"`
}
