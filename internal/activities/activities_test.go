package activities

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
	"tabrev/internal/review"
)

func TestExtractionAuditTrailFreshRecord(t *testing.T) {
	entries := extractionAuditTrail("rec-1", models.StatePending, models.StateExtracted, false)
	require.Len(t, entries, 1)
	require.Equal(t, models.StatePending, entries[0].FromState)
	require.Equal(t, models.StateExtracted, entries[0].ToState)
	require.Equal(t, models.ActorSystem, entries[0].Actor)
	require.Empty(t, entries[0].Note)
}

func TestExtractionAuditTrailReextractionSupersedes(t *testing.T) {
	for _, from := range []models.RecordState{
		models.StateExtracted,
		models.StateUnresolved,
		models.StateUnderReview,
		models.StateApproved,
		models.StateRejected,
		models.StateManualOverride,
	} {
		entries := extractionAuditTrail("rec-1", from, models.StateExtracted, false)
		require.Len(t, entries, 2, "from %s", from)

		require.Equal(t, from, entries[0].FromState)
		require.Equal(t, models.StatePending, entries[0].ToState)
		require.Contains(t, entries[0].Note, "superseded")

		require.Equal(t, models.StatePending, entries[1].FromState)
		require.Equal(t, models.StateExtracted, entries[1].ToState)

		for _, e := range entries {
			require.True(t, review.CanTransition(e.FromState, e.ToState), "%s -> %s", e.FromState, e.ToState)
		}
	}
}

func TestExtractionAuditTrailDegradedNote(t *testing.T) {
	entries := extractionAuditTrail("rec-1", models.StateApproved, models.StateUnresolved, true)
	require.Len(t, entries, 2)
	require.Contains(t, entries[0].Note, "superseded")
	require.Equal(t, "inference unavailable; heuristic-only result", entries[1].Note)
}
