package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"tabrev/internal/workflows"
)

// fakeTemporal stubs the query path; every other client method panics, which
// is fine because runningProgress only queries.
type fakeTemporal struct {
	tclient.Client
	prog workflows.ExtractionRunProgress
	err  error
}

func (f *fakeTemporal) QueryWorkflow(_ context.Context, _, _, _ string, _ ...interface{}) (converter.EncodedValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return progressValue{prog: f.prog}, nil
}

type progressValue struct {
	prog workflows.ExtractionRunProgress
}

func (v progressValue) HasValue() bool { return true }

func (v progressValue) Get(valuePtr interface{}) error {
	out, ok := valuePtr.(*workflows.ExtractionRunProgress)
	if !ok {
		return errors.New("unexpected query result type")
	}
	*out = v.prog
	return nil
}

func TestRunningProgressFindsLiveRun(t *testing.T) {
	s := &Server{temporal: &fakeTemporal{prog: workflows.ExtractionRunProgress{
		TaskID:    "task-9",
		ProjectID: "proj-1",
		Total:     4,
		Done:      2,
	}}}

	prog, ok := s.runningProgress(context.Background(), "proj-1")
	require.True(t, ok)
	require.Equal(t, "task-9", prog.TaskID)
	require.Equal(t, 2, prog.Done)
}

func TestRunningProgressNoLiveRun(t *testing.T) {
	s := &Server{temporal: &fakeTemporal{err: errors.New("workflow execution already completed")}}

	_, ok := s.runningProgress(context.Background(), "proj-1")
	require.False(t, ok)
}

func TestRunningProgressIgnoresRunWithoutTask(t *testing.T) {
	s := &Server{temporal: &fakeTemporal{}}

	_, ok := s.runningProgress(context.Background(), "proj-1")
	require.False(t, ok)
}
