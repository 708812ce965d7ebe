package alertstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const (
	armedKey       = "reminder:alerts:armed"
	occurrencesKey = "reminder:alerts:occurrences"
)

// claimScript fires one due occurrence in a single step. It succeeds only
// while the record still equals ARGV[2] and is scored at or before ARGV[3],
// so a concurrent claim, cancel or re-arm wins over a stale read. On success
// it re-arms the occurrence (ARGV[4] non-empty, scored ARGV[5]) or drops it,
// and records the fired instance ARGV[8] with body ARGV[6] for ARGV[7] ms.
var claimScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) ~= ARGV[2] then
  return 0
end
local current = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not current or tonumber(current) > tonumber(ARGV[3]) then
  return 0
end
if ARGV[4] == '' then
  redis.call('ZREM', KEYS[1], ARGV[1])
  redis.call('HDEL', KEYS[2], ARGV[1])
else
  redis.call('HSET', KEYS[2], ARGV[1], ARGV[4])
  redis.call('ZADD', KEYS[1], ARGV[5], ARGV[1])
end
redis.call('SET', KEYS[4], ARGV[6], 'PX', ARGV[7])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[8])
return 1
`)

type occurrenceRecord struct {
	ID        string         `json:"id"`
	Payload   domain.Payload `json:"payload"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	FireAt    time.Time      `json:"fire_at"`
	Recurring bool           `json:"recurring"`
	ArmedAt   time.Time      `json:"armed_at"`
}

// RedisStore keeps the armed set in Redis so it survives process restarts and
// can be shared by several dispatcher replicas.
type RedisStore struct {
	client    *redis.Client
	delivered *deliveredLedger
	loc       *time.Location
	now       func() time.Time
}

var (
	_ domain.AlertStore  = (*RedisStore)(nil)
	_ domain.FiringStore = (*RedisStore)(nil)
)

func NewRedisStore(client *redis.Client, loc *time.Location) *RedisStore {
	if loc == nil {
		loc = time.Local
	}
	return &RedisStore{
		client:    client,
		delivered: newDeliveredLedger(client),
		loc:       loc,
		now:       time.Now,
	}
}

func (s *RedisStore) Schedule(ctx context.Context, occ *domain.Occurrence) (string, error) {
	if occ.ID == "" {
		return "", ErrMissingOccurrenceID
	}

	data, err := json.Marshal(toOccurrenceRecord(occ, s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to marshal occurrence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, occurrencesKey, occ.ID, data)
	pipe.ZAdd(ctx, armedKey, redis.Z{Score: score(occ.FireAt), Member: occ.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return "", unavailable("failed to arm occurrence", err)
	}

	return occ.ID, nil
}

func (s *RedisStore) Cancel(ctx context.Context, handle string) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, armedKey, handle)
	pipe.HDel(ctx, occurrencesKey, handle)

	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("failed to cancel occurrence", err)
	}
	return nil
}

func (s *RedisStore) CancelByMatch(ctx context.Context, match func(domain.Payload) bool) (int, error) {
	all, err := s.client.HGetAll(ctx, occurrencesKey).Result()
	if err != nil {
		return 0, unavailable("failed to enumerate occurrences", err)
	}

	ids := make([]string, 0)
	for id, data := range all {
		var record occurrenceRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			slog.Warn("skipping corrupt occurrence record",
				slog.String("occurrence_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if match(record.Payload) {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, armedKey, members...)
	pipe.HDel(ctx, occurrencesKey, ids...)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, unavailable("failed to cancel occurrences", err)
	}

	return len(ids), nil
}

func (s *RedisStore) ListArmed(ctx context.Context) ([]*domain.Occurrence, error) {
	ids, err := s.client.ZRange(ctx, armedKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable("failed to list armed occurrences", err)
	}
	if len(ids) == 0 {
		return []*domain.Occurrence{}, nil
	}

	values, err := s.client.HMGet(ctx, occurrencesKey, ids...).Result()
	if err != nil {
		return nil, unavailable("failed to load armed occurrences", err)
	}

	result := make([]*domain.Occurrence, 0, len(ids))
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var record occurrenceRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			slog.Warn("skipping corrupt occurrence record",
				slog.String("occurrence_id", ids[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		result = append(result, record.toDomain())
	}

	return result, nil
}

func (s *RedisStore) Retire(ctx context.Context, instanceID string) error {
	return s.delivered.retire(ctx, instanceID)
}

func (s *RedisStore) ListDelivered(ctx context.Context, userID string) ([]*domain.DeliveredAlert, error) {
	return s.delivered.list(ctx, userID, s.now())
}

// ClaimDue fires up to limit occurrences due at now. Each occurrence is
// claimed, re-armed and recorded as delivered atomically, so a crash or an
// error part way through leaves the unclaimed rest armed.
func (s *RedisStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*domain.DeliveredAlert, error) {
	if limit <= 0 {
		limit = 100
	}

	ids, err := s.client.ZRangeByScore(ctx, armedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   formatScore(score(now)),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, unavailable("failed to read due occurrences", err)
	}

	claimed := make([]*domain.DeliveredAlert, 0, len(ids))
	if len(ids) == 0 {
		return claimed, nil
	}

	values, err := s.client.HMGet(ctx, occurrencesKey, ids...).Result()
	if err != nil {
		return nil, unavailable("failed to load due occurrences", err)
	}

	for i, v := range values {
		id := ids[i]

		data, ok := v.(string)
		if !ok {
			// Armed without a record: nothing can be fired for it.
			s.client.ZRem(ctx, armedKey, id)
			continue
		}

		var record occurrenceRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			slog.Warn("dropping corrupt occurrence record",
				slog.String("occurrence_id", id),
				slog.String("error", err.Error()),
			)
			if err := s.Cancel(ctx, id); err != nil {
				return claimed, err
			}
			continue
		}

		alert, won, err := s.claim(ctx, record.toDomain(), data, now)
		if err != nil {
			return claimed, err
		}
		if won {
			claimed = append(claimed, alert)
		}
	}

	return claimed, nil
}

// claim reports false when another caller claimed, canceled or re-armed occ
// after it was read.
func (s *RedisStore) claim(ctx context.Context, occ *domain.Occurrence, claimedData string, now time.Time) (*domain.DeliveredAlert, bool, error) {
	next := ""
	nextScore := "0"

	if occ.Recurring {
		nextAt, err := occ.NextFireAt(now, s.loc)
		if err != nil {
			slog.Warn("dropping recurring occurrence with invalid clock time",
				slog.String("occurrence_id", occ.ID),
				slog.String("error", err.Error()),
			)
		} else {
			rearmed := *occ
			rearmed.FireAt = nextAt
			data, err := json.Marshal(toOccurrenceRecord(&rearmed, now))
			if err != nil {
				return nil, false, fmt.Errorf("failed to marshal occurrence: %w", err)
			}
			next = string(data)
			nextScore = formatScore(score(nextAt))
		}
	}

	alert := domain.NewDeliveredAlert(*occ, now)
	delivered, err := marshalDelivered(alert)
	if err != nil {
		return nil, false, err
	}

	won, err := claimScript.Run(ctx, s.client,
		[]string{armedKey, occurrencesKey, deliveredIndexKey, deliveredKeyPrefix + alert.InstanceID},
		occ.ID, claimedData, formatScore(score(now)), next, nextScore,
		delivered, deliveredTTL.Milliseconds(), alert.InstanceID,
	).Int()
	if err != nil {
		return nil, false, unavailable("failed to claim due occurrence", err)
	}
	return alert, won == 1, nil
}

func toOccurrenceRecord(occ *domain.Occurrence, armedAt time.Time) occurrenceRecord {
	return occurrenceRecord{
		ID:        occ.ID,
		Payload:   occ.Payload,
		Title:     occ.Title,
		Body:      occ.Body,
		FireAt:    occ.FireAt,
		Recurring: occ.Recurring,
		ArmedAt:   armedAt,
	}
}

func (r occurrenceRecord) toDomain() *domain.Occurrence {
	return &domain.Occurrence{
		ID:        r.ID,
		Payload:   r.Payload,
		Title:     r.Title,
		Body:      r.Body,
		FireAt:    r.FireAt,
		Recurring: r.Recurring,
	}
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
