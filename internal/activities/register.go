package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ResolveScopeActivity)
	w.RegisterActivity(a.ExtractPairActivity)
	w.RegisterActivity(a.MarkTaskRunningActivity)
	w.RegisterActivity(a.UpdateTaskProgressActivity)
	w.RegisterActivity(a.FinishTaskActivity)
	w.RegisterActivity(a.WriteTaskSummaryActivity)
}
