package alertstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const (
	deliveredIndexKey  = "reminder:alerts:delivered"
	deliveredKeyPrefix = "reminder:alerts:delivered:"
	deliveredTTL       = 24 * time.Hour
	deliveredRetention = deliveredTTL
)

type deliveredRecord struct {
	InstanceID string           `json:"instance_id"`
	Occurrence occurrenceRecord `json:"occurrence"`
	FiredAt    time.Time        `json:"fired_at"`
}

// deliveredLedger tracks fired instances that have not been answered yet.
// Entries expire after deliveredTTL.
type deliveredLedger struct {
	client *redis.Client
}

func newDeliveredLedger(client *redis.Client) *deliveredLedger {
	return &deliveredLedger{client: client}
}

func marshalDelivered(alert *domain.DeliveredAlert) (string, error) {
	data, err := json.Marshal(deliveredRecord{
		InstanceID: alert.InstanceID,
		Occurrence: toOccurrenceRecord(&alert.Occurrence, alert.FiredAt),
		FiredAt:    alert.FiredAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal delivered alert: %w", err)
	}
	return string(data), nil
}

func (l *deliveredLedger) save(ctx context.Context, alert *domain.DeliveredAlert) error {
	data, err := marshalDelivered(alert)
	if err != nil {
		return err
	}

	pipe := l.client.TxPipeline()
	pipe.Set(ctx, deliveredKeyPrefix+alert.InstanceID, data, deliveredTTL)
	pipe.ZAdd(ctx, deliveredIndexKey, redis.Z{Score: score(alert.FiredAt), Member: alert.InstanceID})

	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("failed to record delivered alert", err)
	}
	return nil
}

func (l *deliveredLedger) retire(ctx context.Context, instanceID string) error {
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, deliveredKeyPrefix+instanceID)
	pipe.ZRem(ctx, deliveredIndexKey, instanceID)

	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("failed to retire delivered alert", err)
	}
	return nil
}

func (l *deliveredLedger) list(ctx context.Context, userID string, now time.Time) ([]*domain.DeliveredAlert, error) {
	cutoff := now.Add(-deliveredRetention)
	if err := l.client.ZRemRangeByScore(ctx, deliveredIndexKey, "-inf", formatScore(score(cutoff))).Err(); err != nil {
		return nil, unavailable("failed to prune delivered alerts", err)
	}

	instanceIDs, err := l.client.ZRange(ctx, deliveredIndexKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable("failed to list delivered alerts", err)
	}

	result := make([]*domain.DeliveredAlert, 0)
	if len(instanceIDs) == 0 {
		return result, nil
	}

	keys := make([]string, len(instanceIDs))
	for i, id := range instanceIDs {
		keys[i] = deliveredKeyPrefix + id
	}

	values, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("failed to load delivered alerts", err)
	}

	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var record deliveredRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			slog.Warn("skipping corrupt delivered alert record",
				slog.String("instance_id", instanceIDs[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		if userID != "" && record.Occurrence.Payload.UserID != userID {
			continue
		}
		result = append(result, &domain.DeliveredAlert{
			InstanceID: record.InstanceID,
			Occurrence: *record.Occurrence.toDomain(),
			FiredAt:    record.FiredAt,
		})
	}

	return result, nil
}
