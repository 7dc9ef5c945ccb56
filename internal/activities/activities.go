package activities

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tabrev/internal/config"
	"tabrev/internal/extract"
	"tabrev/internal/heuristics"
	"tabrev/internal/merge"
	"tabrev/internal/models"
	"tabrev/internal/providers"
	"tabrev/internal/storage"
	"tabrev/internal/util"
)

type Activities struct {
	cfg          config.Config
	documentRepo *storage.DocumentRepo
	chunkRepo    *storage.ChunkRepo
	fieldRepo    *storage.FieldDefRepo
	recordRepo   *storage.RecordRepo
	auditRepo    *storage.AuditRepo
	taskRepo     *storage.TaskRepo
	extractor    *extract.Extractor
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders)
	if err != nil {
		return nil, err
	}
	policy := extract.DefaultRetryPolicy()
	if cfg.InferenceAttempts > 0 {
		policy.MaxAttempts = cfg.InferenceAttempts
	}
	if cfg.InferenceBackoffMS > 0 {
		policy.InitialBackoff = time.Duration(cfg.InferenceBackoffMS) * time.Millisecond
	}
	timeout := time.Duration(cfg.InferenceTimeoutSecs) * time.Second
	return &Activities{
		cfg:          cfg,
		documentRepo: storage.NewDocumentRepo(db),
		chunkRepo:    storage.NewChunkRepo(db),
		fieldRepo:    storage.NewFieldDefRepo(db),
		recordRepo:   storage.NewRecordRepo(db),
		auditRepo:    storage.NewAuditRepo(db),
		taskRepo:     storage.NewTaskRepo(db),
		extractor:    extract.NewExtractor(pm, policy, timeout, cfg.ExtractTopKChunks),
	}, nil
}

// ResolveScopeActivity expands a run request into the concrete pair list.
// Only parsed, current documents qualify; an empty scope is a precondition
// failure, not an empty run.
func (a *Activities) ResolveScopeActivity(ctx context.Context, in ResolveScopeInput) (ResolveScopeOutput, error) {
	docs, err := a.documentRepo.ListCurrentByProject(ctx, in.ProjectID)
	if err != nil {
		return ResolveScopeOutput{}, err
	}
	fields, err := a.fieldRepo.ListByProject(ctx, in.ProjectID)
	if err != nil {
		return ResolveScopeOutput{}, err
	}

	docFilter := toSet(in.DocumentIDs)
	fieldFilter := toSet(in.FieldIDs)

	eligibleDocs := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Status != models.ParseParsed {
			continue
		}
		if len(docFilter) > 0 {
			if _, ok := docFilter[d.DocumentID]; !ok {
				continue
			}
		}
		eligibleDocs = append(eligibleDocs, d.DocumentID)
	}
	eligibleFields := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(fieldFilter) > 0 {
			if _, ok := fieldFilter[f.FieldID]; !ok {
				continue
			}
		}
		eligibleFields = append(eligibleFields, f.FieldID)
	}

	if len(eligibleDocs) == 0 {
		return ResolveScopeOutput{}, fmt.Errorf("no parsed documents in scope for project %s", in.ProjectID)
	}
	if len(eligibleFields) == 0 {
		return ResolveScopeOutput{}, fmt.Errorf("no fields in scope for project %s", in.ProjectID)
	}

	out := ResolveScopeOutput{Pairs: make([]Pair, 0, len(eligibleDocs)*len(eligibleFields))}
	for _, d := range eligibleDocs {
		for _, f := range eligibleFields {
			out.Pairs = append(out.Pairs, Pair{DocumentID: d, FieldID: f})
		}
	}
	return out, nil
}

// ExtractPairActivity runs both extractors for one (document, field) pair
// and persists the merged record with its audit entry. Inference being down
// degrades the pair to UNRESOLVED instead of failing the activity; the run
// keeps going.
func (a *Activities) ExtractPairActivity(ctx context.Context, in ExtractPairInput) (ExtractPairOutput, error) {
	field, err := a.fieldRepo.Get(ctx, in.FieldID)
	if err != nil {
		return ExtractPairOutput{}, err
	}
	chunks, err := a.chunkRepo.ListByDocument(ctx, in.DocumentID)
	if err != nil {
		return ExtractPairOutput{}, err
	}

	var heuristicCand *models.Candidate
	if c, ok := heuristics.Match(field, chunks); ok {
		heuristicCand = &c
	}

	failed := false
	var modelCand *models.Candidate
	c, ok, err := a.extractor.Extract(ctx, field, chunks, heuristicCand)
	switch {
	case err == nil && ok:
		modelCand = &c
	case err != nil && (errors.Is(err, extract.ErrInferenceUnavailable) || errors.Is(err, extract.ErrInferenceTimeout)):
		failed = true
	case err != nil:
		return ExtractPairOutput{}, err
	}

	result := merge.Merge(field, heuristicCand, modelCand)

	recordID := uuid.NewString()
	fromState := models.StatePending
	if existing, err := a.recordRepo.GetByPair(ctx, in.DocumentID, in.FieldID); err == nil {
		recordID = existing.RecordID
		fromState = existing.State
	} else if !errors.Is(err, storage.ErrNotFound) {
		return ExtractPairOutput{}, err
	}

	rec := models.ExtractionRecord{
		RecordID:     recordID,
		DocumentID:   in.DocumentID,
		FieldID:      in.FieldID,
		Value:        result.Value,
		MachineValue: result.Value,
		Confidence:   result.Confidence,
		Citation:     result.Citation,
		Source:       result.Source,
		State:        result.State,
		Version:      1,
	}
	if err := a.recordRepo.UpsertForPair(ctx, rec); err != nil {
		return ExtractPairOutput{}, err
	}

	for _, entry := range extractionAuditTrail(recordID, fromState, result.State, failed) {
		if err := a.auditRepo.Insert(ctx, entry); err != nil {
			return ExtractPairOutput{}, err
		}
	}

	return ExtractPairOutput{RecordID: recordID, State: result.State, Failed: failed}, nil
}

// extractionAuditTrail builds the audit entries for one extraction write. A
// re-extraction over an existing record first supersedes the previous result
// with a PENDING reset, so every recorded edge is one the review state
// machine allows and the supersession is visible in the trail.
func extractionAuditTrail(recordID string, fromState, toState models.RecordState, degraded bool) []models.AuditEntry {
	now := time.Now().UTC()
	out := make([]models.AuditEntry, 0, 2)
	if fromState != models.StatePending {
		out = append(out, models.AuditEntry{
			EntryID:   uuid.NewString(),
			RecordID:  recordID,
			FromState: fromState,
			ToState:   models.StatePending,
			Actor:     models.ActorSystem,
			Note:      "previous result superseded by re-extraction",
			CreatedAt: now,
		})
	}
	note := ""
	if degraded {
		note = "inference unavailable; heuristic-only result"
	}
	out = append(out, models.AuditEntry{
		EntryID:   uuid.NewString(),
		RecordID:  recordID,
		FromState: models.StatePending,
		ToState:   toState,
		Actor:     models.ActorSystem,
		Note:      note,
		CreatedAt: now,
	})
	return out
}

func (a *Activities) MarkTaskRunningActivity(ctx context.Context, in MarkTaskRunningInput) error {
	return a.taskRepo.MarkRunning(ctx, in.TaskID, in.TotalPairs)
}

func (a *Activities) UpdateTaskProgressActivity(ctx context.Context, in UpdateTaskProgressInput) error {
	return a.taskRepo.AddProgress(ctx, in.TaskID, in.Done, in.Failed)
}

func (a *Activities) FinishTaskActivity(ctx context.Context, in FinishTaskInput) error {
	return a.taskRepo.Finish(ctx, in.TaskID, in.State, in.ErrorMessage)
}

func (a *Activities) WriteTaskSummaryActivity(ctx context.Context, in WriteTaskSummaryInput) (WriteTaskSummaryOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, in.ProjectID, "tasks", in.TaskID, "summary.json")
	if err := util.WriteJSONAtomic(path, in.Summary); err != nil {
		return WriteTaskSummaryOutput{}, err
	}
	return WriteTaskSummaryOutput{Path: path}, nil
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
