package domain

import "context"

//go:generate mockgen -source=adherence_log.go -destination=adherence_log_mock.go -package=domain

// AdherenceLog is the append-only store of taken doses.
type AdherenceLog interface {
	Append(ctx context.Context, record *AdherenceRecord) error
	Recent(ctx context.Context, userID string, limit int) ([]*AdherenceRecord, error)
}
