package alertstore

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

// MemoryStore keeps the armed set in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu        sync.Mutex
	loc       *time.Location
	armed     map[string]*domain.Occurrence
	delivered map[string]*domain.DeliveredAlert
}

var (
	_ domain.AlertStore  = (*MemoryStore)(nil)
	_ domain.FiringStore = (*MemoryStore)(nil)
)

func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.Local
	}
	return &MemoryStore{
		loc:       loc,
		armed:     make(map[string]*domain.Occurrence),
		delivered: make(map[string]*domain.DeliveredAlert),
	}
}

func (s *MemoryStore) Schedule(_ context.Context, occ *domain.Occurrence) (string, error) {
	if occ.ID == "" {
		return "", ErrMissingOccurrenceID
	}

	stored := *occ
	s.mu.Lock()
	s.armed[occ.ID] = &stored
	s.mu.Unlock()

	return occ.ID, nil
}

func (s *MemoryStore) Cancel(_ context.Context, handle string) error {
	s.mu.Lock()
	delete(s.armed, handle)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CancelByMatch(_ context.Context, match func(domain.Payload) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canceled := 0
	for id, occ := range s.armed {
		if match(occ.Payload) {
			delete(s.armed, id)
			canceled++
		}
	}
	return canceled, nil
}

func (s *MemoryStore) ListArmed(_ context.Context) ([]*domain.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.Occurrence, 0, len(s.armed))
	for _, occ := range s.armed {
		copied := *occ
		result = append(result, &copied)
	}
	sortOccurrences(result)
	return result, nil
}

func (s *MemoryStore) Retire(_ context.Context, instanceID string) error {
	s.mu.Lock()
	delete(s.delivered, instanceID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListDelivered(_ context.Context, userID string) ([]*domain.DeliveredAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.DeliveredAlert, 0)
	for _, alert := range s.delivered {
		if userID != "" && alert.Occurrence.Payload.UserID != userID {
			continue
		}
		copied := *alert
		result = append(result, &copied)
	}
	slices.SortFunc(result, func(a, b *domain.DeliveredAlert) int {
		return cmp.Or(a.FiredAt.Compare(b.FiredAt), cmp.Compare(a.InstanceID, b.InstanceID))
	})
	return result, nil
}

func (s *MemoryStore) ClaimDue(_ context.Context, now time.Time, limit int) ([]*domain.DeliveredAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*domain.Occurrence, 0)
	for _, occ := range s.armed {
		if !occ.FireAt.After(now) {
			due = append(due, occ)
		}
	}
	sortOccurrences(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*domain.DeliveredAlert, 0, len(due))
	for _, occ := range due {
		alert := domain.NewDeliveredAlert(*occ, now)
		s.delivered[alert.InstanceID] = alert
		claimed = append(claimed, alert)

		if !occ.Recurring {
			delete(s.armed, occ.ID)
			continue
		}

		next, err := occ.NextFireAt(now, s.loc)
		if err != nil {
			slog.Warn("dropping recurring occurrence with invalid clock time",
				slog.String("occurrence_id", occ.ID),
				slog.String("error", err.Error()),
			)
			delete(s.armed, occ.ID)
			continue
		}
		rearmed := *occ
		rearmed.FireAt = next
		s.armed[occ.ID] = &rearmed
	}

	return claimed, nil
}

func sortOccurrences(occs []*domain.Occurrence) {
	slices.SortFunc(occs, func(a, b *domain.Occurrence) int {
		return cmp.Or(a.FireAt.Compare(b.FireAt), cmp.Compare(a.ID, b.ID))
	})
}
