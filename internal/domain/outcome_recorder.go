package domain

import (
	"context"
	"time"
)

type OutcomeRecord struct {
	MedicationID string
	UserID       string
	ClockTime    string
	Action       Action
	Outcome      Outcome
	Snoozed      bool
	HandledAt    time.Time
}

// OutcomeRecorder stores response outcomes for adherence analytics.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, record OutcomeRecord) error
	Close() error
}
