package domain

import "errors"

var (
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrPermissionDenied    = errors.New("notification permission denied")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrStoreUnavailable    = errors.New("alert store unavailable")
	ErrGroupingQueryFailed = errors.New("grouping query failed")
	ErrMedicationNotFound  = errors.New("medication not found")
	ErrOccurrenceNotFound  = errors.New("occurrence not found")
)
