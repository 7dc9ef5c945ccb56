package models

import "time"

type ParseStatus string

const (
	ParsePending ParseStatus = "PENDING"
	ParseParsed  ParseStatus = "PARSED"
	ParseEmpty   ParseStatus = "EMPTY_DOCUMENT"
	ParseFailed  ParseStatus = "FAILED"
)

type FieldType string

const (
	FieldString   FieldType = "STRING"
	FieldDate     FieldType = "DATE"
	FieldCurrency FieldType = "CURRENCY"
	FieldBoolean  FieldType = "BOOLEAN"
	FieldEnum     FieldType = "ENUM"
)

type Source string

const (
	SourceHeuristic Source = "HEURISTIC"
	SourceModel     Source = "MODEL"
	SourceMerged    Source = "MERGED"
	SourceManual    Source = "MANUAL"
)

type RecordState string

const (
	StatePending        RecordState = "PENDING"
	StateExtracted      RecordState = "EXTRACTED"
	StateUnresolved     RecordState = "UNRESOLVED"
	StateUnderReview    RecordState = "UNDER_REVIEW"
	StateApproved       RecordState = "APPROVED"
	StateRejected       RecordState = "REJECTED"
	StateManualOverride RecordState = "MANUAL_OVERRIDE"
)

// Terminal reports whether s ends a review pass. Only re-extraction moves a
// record out of a terminal state.
func (s RecordState) Terminal() bool {
	return s == StateApproved || s == StateRejected || s == StateManualOverride
}

type TaskState string

const (
	TaskPending   TaskState = "PENDING"
	TaskRunning   TaskState = "RUNNING"
	TaskCompleted TaskState = "COMPLETED"
	TaskFailed    TaskState = "FAILED"
)

// Actor value for machine-originated audit entries.
const ActorSystem = "SYSTEM"

type Project struct {
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Document struct {
	DocumentID string      `json:"document_id"`
	ProjectID  string      `json:"project_id"`
	Filename   string      `json:"filename"`
	Format     string      `json:"format"`
	ByteSize   int64       `json:"byte_size"`
	SHA256     string      `json:"sha256"`
	Version    int         `json:"version"`
	Status     ParseStatus `json:"status"`
	FailReason string      `json:"fail_reason,omitempty"`
	Superseded bool        `json:"superseded,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Chunk is a contiguous span of a document's normalized text. Start and End
// are rune offsets into that text; chunks of one document are ordered,
// non-overlapping and reconstruct the normalized text exactly.
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type FieldDefinition struct {
	FieldID    string    `json:"field_id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Hint       string    `json:"hint,omitempty"`
	EnumValues []string  `json:"enum_values,omitempty"`
	Required   bool      `json:"required"`
	CreatedAt  time.Time `json:"created_at"`
}

// Citation points at the chunk and character span that justifies an
// extracted value. Start and End are rune offsets within the chunk text.
type Citation struct {
	ChunkIndex int `json:"chunk_index"`
	Start      int `json:"start"`
	End        int `json:"end"`
}

// Candidate is one extractor's proposal for a field value before merging.
type Candidate struct {
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Citation   *Citation `json:"citation,omitempty"`
}

// ExtractionRecord is the single current record for a (document, field)
// pair. Value is the record's current value; MachineValue keeps the merged
// machine output so evaluation can compare reviewer decisions against it.
type ExtractionRecord struct {
	RecordID     string      `json:"record_id"`
	DocumentID   string      `json:"document_id"`
	FieldID      string      `json:"field_id"`
	Value        *string     `json:"value"`
	MachineValue *string     `json:"machine_value"`
	Confidence   float64     `json:"confidence"`
	Citation     *Citation   `json:"citation,omitempty"`
	Source       Source      `json:"source"`
	State        RecordState `json:"state"`
	ReviewerNote string      `json:"reviewer_note,omitempty"`
	ReviewedBy   string      `json:"reviewed_by,omitempty"`
	Version      int         `json:"version"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type AuditEntry struct {
	EntryID   string      `json:"entry_id"`
	RecordID  string      `json:"record_id"`
	FromState RecordState `json:"from_state"`
	ToState   RecordState `json:"to_state"`
	Actor     string      `json:"actor"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type Task struct {
	TaskID       string     `json:"task_id"`
	ProjectID    string     `json:"project_id"`
	State        TaskState  `json:"state"`
	TotalPairs   int        `json:"total_pairs"`
	DonePairs    int        `json:"done_pairs"`
	FailedPairs  int        `json:"failed_pairs"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type FieldMetrics struct {
	FieldID    string  `json:"field_id"`
	FieldName  string  `json:"field_name"`
	Records    int     `json:"records"`
	Accuracy   float64 `json:"accuracy"`
	Similarity float64 `json:"similarity"`
}

type DocumentMetrics struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Records    int     `json:"records"`
	Accuracy   float64 `json:"accuracy"`
	Similarity float64 `json:"similarity"`
}

// EvaluationResult is a projection over terminal records, recomputed on
// demand and never stored as source of truth.
type EvaluationResult struct {
	ProjectID         string            `json:"project_id"`
	PerField          []FieldMetrics    `json:"per_field"`
	PerDocument       []DocumentMetrics `json:"per_document"`
	ProjectAccuracy   float64           `json:"project_accuracy"`
	ProjectSimilarity float64           `json:"project_similarity"`
	TerminalRecords   int               `json:"terminal_records"`
	TotalRecords      int               `json:"total_records"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
