package repository

import "errors"

var (
	ErrMissingMedicationID = errors.New("medication id is required")
	ErrMissingUserID       = errors.New("user id is required")
)
