package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "reminder:permission:"

	stateGranted = "granted"
	stateDenied  = "denied"
)

var ErrMissingUserID = errors.New("user id is required")

// Gate stores per-user notification permission in Redis. A user with no
// stored state is treated as granted.
type Gate struct {
	client *redis.Client
}

func NewGate(client *redis.Client) *Gate {
	return &Gate{client: client}
}

func (g *Gate) EnsureNotificationsAllowed(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrMissingUserID
	}

	state, err := g.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read notification permission: %w", err)
	}

	return state != stateDenied, nil
}

func (g *Gate) Set(ctx context.Context, userID string, allowed bool) error {
	if userID == "" {
		return ErrMissingUserID
	}

	state := stateGranted
	if !allowed {
		state = stateDenied
	}

	if err := g.client.Set(ctx, keyPrefix+userID, state, 0).Err(); err != nil {
		return fmt.Errorf("failed to store notification permission: %w", err)
	}
	return nil
}
