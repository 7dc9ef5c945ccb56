package review

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
)

func strp(s string) *string { return &s }

func extractedRecord() *models.ExtractionRecord {
	v := "2024-01-01"
	return &models.ExtractionRecord{
		RecordID:     "rec-1",
		DocumentID:   "doc-1",
		FieldID:      "fld-1",
		Value:        &v,
		MachineValue: &v,
		Confidence:   0.85,
		Source:       models.SourceMerged,
		State:        models.StateExtracted,
		Version:      1,
	}
}

func TestApproveFlow(t *testing.T) {
	rec := extractedRecord()

	entry, err := Open(rec, "alice")
	require.NoError(t, err)
	require.Equal(t, models.StateExtracted, entry.FromState)
	require.Equal(t, models.StateUnderReview, entry.ToState)
	require.Equal(t, models.StateUnderReview, rec.State)

	entry, err = Apply(rec, ActionApprove, "alice", "looks right", nil)
	require.NoError(t, err)
	require.Equal(t, models.StateApproved, rec.State)
	require.Equal(t, "alice", rec.ReviewedBy)
	require.Equal(t, "looks right", rec.ReviewerNote)
	require.Equal(t, "2024-01-01", *rec.Value)
	require.Equal(t, 3, rec.Version)
	require.NotEmpty(t, entry.EntryID)
}

func TestOverrideReplacesValue(t *testing.T) {
	rec := extractedRecord()
	_, err := Open(rec, "bob")
	require.NoError(t, err)

	_, err = Apply(rec, ActionOverride, "bob", "wrong date in source", strp("2024-02-15"))
	require.NoError(t, err)
	require.Equal(t, models.StateManualOverride, rec.State)
	require.Equal(t, models.SourceManual, rec.Source)
	require.Equal(t, "2024-02-15", *rec.Value)
	// Machine output survives for later comparison.
	require.Equal(t, "2024-01-01", *rec.MachineValue)
}

func TestOverrideWithoutValueStaysUnderReview(t *testing.T) {
	rec := extractedRecord()
	_, err := Open(rec, "bob")
	require.NoError(t, err)
	versionBefore := rec.Version

	_, err = Apply(rec, ActionOverride, "bob", "", nil)
	require.ErrorIs(t, err, ErrMissingOverrideValue)
	require.Equal(t, models.StateUnderReview, rec.State)
	require.Equal(t, versionBefore, rec.Version)

	_, err = Apply(rec, ActionOverride, "bob", "", strp("   "))
	require.ErrorIs(t, err, ErrMissingOverrideValue)
	require.Equal(t, models.StateUnderReview, rec.State)
}

func TestInvalidTransitionRejected(t *testing.T) {
	rec := extractedRecord()

	// Straight to APPROVED without opening a review.
	_, err := Apply(rec, ActionApprove, "alice", "", nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, models.StateExtracted, rec.State)

	rec.State = models.StatePending
	_, err = Open(rec, "alice")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUnresolvedCanBeReviewed(t *testing.T) {
	rec := extractedRecord()
	rec.State = models.StateUnresolved
	rec.Value = nil

	_, err := Open(rec, "carol")
	require.NoError(t, err)

	_, err = Apply(rec, ActionOverride, "carol", "found it manually", strp("Acme Corp"))
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", *rec.Value)
}

func TestSupersedeResetsTerminalRecord(t *testing.T) {
	rec := extractedRecord()
	_, err := Open(rec, "alice")
	require.NoError(t, err)
	_, err = Apply(rec, ActionApprove, "alice", "", nil)
	require.NoError(t, err)

	entry, err := Supersede(rec, "document replaced by version 2")
	require.NoError(t, err)
	require.Equal(t, models.StatePending, rec.State)
	require.Nil(t, rec.Value)
	require.Empty(t, rec.ReviewedBy)
	require.Equal(t, models.ActorSystem, entry.Actor)
	require.Equal(t, models.StateApproved, entry.FromState)
}

func TestSupersedeResetsUnreviewedRecord(t *testing.T) {
	rec := extractedRecord()

	entry, err := Supersede(rec, "record reset before re-extraction")
	require.NoError(t, err)
	require.Equal(t, models.StatePending, rec.State)
	require.Equal(t, models.StateExtracted, entry.FromState)
	require.Equal(t, "record reset before re-extraction", entry.Note)
}

func TestSupersedePendingRecordRejected(t *testing.T) {
	rec := extractedRecord()
	rec.State = models.StatePending
	_, err := Supersede(rec, "document replaced")
	require.ErrorIs(t, err, ErrInvalidTransition)
}
