package outcomerecorder

import (
	"context"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.OutcomeRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordOutcome(_ context.Context, _ domain.OutcomeRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
