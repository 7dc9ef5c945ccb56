package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"tabrev/internal/activities"
	"tabrev/internal/models"
)

const QueryGetProgress = "GetProgress"

// ExtractionRunWorkflow drives one extraction task over a project: resolve
// the pair scope, fan pairs out in bounded batches, and record progress both
// in the query handler and the task row. A pair that degrades or errors
// never aborts the run; only an empty scope fails the task.
func ExtractionRunWorkflow(ctx workflow.Context, input ExtractionRunInput) (string, error) {
	progress := ExtractionRunProgress{
		TaskID:    input.TaskID,
		ProjectID: input.ProjectID,
		PerPair:   map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (ExtractionRunProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		// Dispatched pairs run to completion on cancellation so their merged
		// records and audit entries still land.
		WaitForCancellation: true,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	// Bookkeeping after a cancellation runs on a context that survives it.
	dctx, _ := workflow.NewDisconnectedContext(ctx)

	var scope activities.ResolveScopeOutput
	err := workflow.ExecuteActivity(ctx, "ResolveScopeActivity", activities.ResolveScopeInput{
		ProjectID:   input.ProjectID,
		DocumentIDs: input.DocumentIDs,
		FieldIDs:    input.FieldIDs,
	}).Get(ctx, &scope)
	if err != nil {
		progress.FinalState = string(models.TaskFailed)
		_ = workflow.ExecuteActivity(ctx, "FinishTaskActivity", activities.FinishTaskInput{
			TaskID:       input.TaskID,
			State:        models.TaskFailed,
			ErrorMessage: err.Error(),
		}).Get(ctx, nil)
		return "failed", nil
	}

	pairs := dedupPairs(scope.Pairs)
	progress.Total = len(pairs)

	if err := workflow.ExecuteActivity(ctx, "MarkTaskRunningActivity", activities.MarkTaskRunningInput{
		TaskID:     input.TaskID,
		TotalPairs: len(pairs),
	}).Get(ctx, nil); err != nil {
		return "", err
	}

	maxParallel := input.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}

	for i := 0; i < len(pairs); i += maxParallel {
		if ctx.Err() != nil {
			progress.Cancelled = true
			break
		}
		end := i + maxParallel
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[i:end]
		futures := make([]workflow.Future, 0, len(batch))
		for _, p := range batch {
			progress.PerPair[pairKey(p)] = "processing"
			futures = append(futures, workflow.ExecuteActivity(ctx, "ExtractPairActivity", activities.ExtractPairInput{
				DocumentID: p.DocumentID,
				FieldID:    p.FieldID,
			}))
		}

		batchDone, batchFailed := 0, 0
		for idx, f := range futures {
			var out activities.ExtractPairOutput
			err := f.Get(ctx, &out)
			key := pairKey(batch[idx])
			if err != nil {
				batchFailed++
				progress.Failed++
				progress.PerPair[key] = "failed"
				continue
			}
			batchDone++
			progress.Done++
			if out.Failed {
				batchFailed++
				progress.Failed++
				progress.PerPair[key] = "degraded"
			} else {
				progress.PerPair[key] = string(out.State)
			}
		}
		progressCtx := ctx
		if ctx.Err() != nil {
			progressCtx = dctx
		}
		_ = workflow.ExecuteActivity(progressCtx, "UpdateTaskProgressActivity", activities.UpdateTaskProgressInput{
			TaskID: input.TaskID,
			Done:   batchDone,
			Failed: batchFailed,
		}).Get(progressCtx, nil)
	}

	// Finalization still runs when the workflow was cancelled mid-run.
	finalCtx := ctx
	if ctx.Err() != nil {
		finalCtx = dctx
	}

	progress.FinalState = string(models.TaskCompleted)
	_ = workflow.ExecuteActivity(finalCtx, "FinishTaskActivity", activities.FinishTaskInput{
		TaskID: input.TaskID,
		State:  models.TaskCompleted,
	}).Get(finalCtx, nil)

	_ = workflow.ExecuteActivity(finalCtx, "WriteTaskSummaryActivity", activities.WriteTaskSummaryInput{
		ProjectID: input.ProjectID,
		TaskID:    input.TaskID,
		Summary: map[string]any{
			"task_id":      input.TaskID,
			"project_id":   input.ProjectID,
			"total":        progress.Total,
			"done":         progress.Done,
			"failed":       progress.Failed,
			"cancelled":    progress.Cancelled,
			"per_pair":     progress.PerPair,
			"generated_at": workflow.Now(finalCtx),
		},
	}).Get(finalCtx, nil)

	return "completed", nil
}

func dedupPairs(in []activities.Pair) []activities.Pair {
	seen := make(map[string]struct{}, len(in))
	out := make([]activities.Pair, 0, len(in))
	for _, p := range in {
		k := pairKey(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

func pairKey(p activities.Pair) string {
	return p.DocumentID + "/" + p.FieldID
}
