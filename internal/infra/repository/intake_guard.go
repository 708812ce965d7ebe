package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const intakeKeyPrefix = "reminder:intake:"

// IntakeGuard marks a medication dose as recorded for one time bucket so that
// a repeated acknowledgement of the same alert is not logged twice.
type IntakeGuard struct {
	client *redis.Client
	window time.Duration
}

func NewIntakeGuard(client *redis.Client, window time.Duration) *IntakeGuard {
	return &IntakeGuard{
		client: client,
		window: window,
	}
}

func (g *IntakeGuard) Claim(ctx context.Context, medicationID string, at time.Time) (bool, error) {
	if medicationID == "" {
		return false, ErrMissingMedicationID
	}

	ok, err := g.client.SetNX(ctx, g.key(medicationID, at), at.Unix(), 2*g.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim intake bucket: %w", err)
	}

	return ok, nil
}

func (g *IntakeGuard) Release(ctx context.Context, medicationID string, at time.Time) error {
	if err := g.client.Del(ctx, g.key(medicationID, at)).Err(); err != nil {
		return fmt.Errorf("failed to release intake bucket: %w", err)
	}
	return nil
}

func (g *IntakeGuard) key(medicationID string, at time.Time) string {
	bucket := at.Truncate(g.window).Unix()
	return intakeKeyPrefix + medicationID + ":" + strconv.FormatInt(bucket, 10)
}
