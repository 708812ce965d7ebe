package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=alert_store.go -destination=alert_store_mock.go -package=domain

// AlertStore persists armed occurrences and fires them, surviving restarts of
// this process. It is the source of truth for what is armed.
type AlertStore interface {
	// Schedule arms occ, replacing any armed occurrence with the same ID.
	Schedule(ctx context.Context, occ *Occurrence) (string, error)
	// Cancel disarms one occurrence. Cancelling an unknown handle is a no-op.
	Cancel(ctx context.Context, handle string) error
	// CancelByMatch disarms every armed occurrence whose payload matches.
	CancelByMatch(ctx context.Context, match func(Payload) bool) (int, error)
	ListArmed(ctx context.Context) ([]*Occurrence, error)
	// Retire removes a fired instance. Retiring an already consumed instance is a no-op.
	Retire(ctx context.Context, instanceID string) error
	ListDelivered(ctx context.Context, userID string) ([]*DeliveredAlert, error)
}

// FiringStore is implemented by stores that fire alerts by polling.
type FiringStore interface {
	// ClaimDue claims occurrences due at now, re-arms recurring ones and
	// records the fired instances. A claimed occurrence is returned once.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*DeliveredAlert, error)
}
