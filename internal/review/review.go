// Package review implements the record review state machine. Every
// transition is validated against the allowed edges and emits an append-only
// audit entry; illegal transitions leave the record untouched.
package review

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tabrev/internal/models"
)

var (
	ErrInvalidTransition    = errors.New("invalid review transition")
	ErrMissingOverrideValue = errors.New("override requires a value")
)

type Action string

const (
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionOverride Action = "OVERRIDE"
)

var actionTarget = map[Action]models.RecordState{
	ActionApprove:  models.StateApproved,
	ActionReject:   models.StateRejected,
	ActionOverride: models.StateManualOverride,
}

// Any state but PENDING can return to PENDING: that edge is reserved for the
// system superseding a result, either through a document replacement or a
// re-extraction over the pair.
var allowed = map[models.RecordState][]models.RecordState{
	models.StatePending:        {models.StateExtracted, models.StateUnresolved},
	models.StateExtracted:      {models.StateUnderReview, models.StatePending},
	models.StateUnresolved:     {models.StateUnderReview, models.StatePending},
	models.StateUnderReview:    {models.StateApproved, models.StateRejected, models.StateManualOverride, models.StatePending},
	models.StateApproved:       {models.StatePending},
	models.StateRejected:       {models.StatePending},
	models.StateManualOverride: {models.StatePending},
}

// CanTransition reports whether the edge from one state to another exists.
func CanTransition(from, to models.RecordState) bool {
	for _, t := range allowed[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Open moves a record into UNDER_REVIEW.
func Open(rec *models.ExtractionRecord, actor string) (models.AuditEntry, error) {
	return transition(rec, models.StateUnderReview, actor, "")
}

// Apply resolves an open review with one of the reviewer actions. An
// override without a value fails and leaves the record UNDER_REVIEW.
func Apply(rec *models.ExtractionRecord, action Action, actor, note string, overrideValue *string) (models.AuditEntry, error) {
	target, ok := actionTarget[action]
	if !ok {
		return models.AuditEntry{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	if action == ActionOverride {
		if overrideValue == nil || strings.TrimSpace(*overrideValue) == "" {
			return models.AuditEntry{}, ErrMissingOverrideValue
		}
	}
	entry, err := transition(rec, target, actor, note)
	if err != nil {
		return models.AuditEntry{}, err
	}
	if action == ActionOverride {
		v := strings.TrimSpace(*overrideValue)
		rec.Value = &v
		rec.Source = models.SourceManual
	}
	rec.ReviewedBy = actor
	rec.ReviewerNote = note
	return entry, nil
}

// Supersede returns a record to PENDING when its result is displaced, by a
// newer document version or by a re-extraction over the pair. Reviewer
// outcome is cleared; the audit trail keeps the history.
func Supersede(rec *models.ExtractionRecord, note string) (models.AuditEntry, error) {
	entry, err := transition(rec, models.StatePending, models.ActorSystem, note)
	if err != nil {
		return models.AuditEntry{}, err
	}
	rec.Value = nil
	rec.MachineValue = nil
	rec.Confidence = 0
	rec.Citation = nil
	rec.Source = ""
	rec.ReviewedBy = ""
	rec.ReviewerNote = ""
	return entry, nil
}

func transition(rec *models.ExtractionRecord, to models.RecordState, actor, note string) (models.AuditEntry, error) {
	if !CanTransition(rec.State, to) {
		return models.AuditEntry{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.State, to)
	}
	now := time.Now().UTC()
	entry := models.AuditEntry{
		EntryID:   uuid.NewString(),
		RecordID:  rec.RecordID,
		FromState: rec.State,
		ToState:   to,
		Actor:     actor,
		Note:      note,
		CreatedAt: now,
	}
	rec.State = to
	rec.Version++
	rec.UpdatedAt = now
	return entry, nil
}
