package domain

import "context"

//go:generate mockgen -source=collaborators.go -destination=collaborators_mock.go -package=domain

type AuthContext interface {
	CurrentUser(ctx context.Context) (string, bool)
}

type PermissionGate interface {
	EnsureNotificationsAllowed(ctx context.Context, userID string) (bool, error)
}

// Presenter shows a grouped prompt to the user. It reports false when nobody
// is in a position to show it.
type Presenter interface {
	Present(ctx context.Context, batch *ModalBatch) bool
}

// Notifier pushes a fired alert to the user's devices.
type Notifier interface {
	Notify(ctx context.Context, alert *DeliveredAlert) error
}
