package presenter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const DefaultBufferSize = 8

// Hub fans grouped prompts out to the clients subscribed for a user.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[*Subscription]struct{}
	bufferSize int
}

type Subscription struct {
	userID string
	ch     chan *domain.ModalBatch
	hub    *Hub
	once   sync.Once
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subs:       make(map[string]map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		userID: userID,
		ch:     make(chan *domain.ModalBatch, h.bufferSize),
		hub:    h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}

	return sub
}

// Present delivers batch to every subscriber of its user without blocking.
// It reports whether at least one subscriber accepted it.
func (h *Hub) Present(ctx context.Context, batch *domain.ModalBatch) bool {
	if batch == nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	accepted := false
	for sub := range h.subs[batch.UserID] {
		select {
		case sub.ch <- batch:
			accepted = true
		default:
			slog.WarnContext(ctx, "prompt subscriber is full, dropping batch",
				slog.String("user_id", batch.UserID),
				slog.String("clock_time", batch.ClockTime),
				slog.Int("batch_size", batch.Size()),
			)
		}
	}

	return accepted
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (s *Subscription) Events() <-chan *domain.ModalBatch {
	return s.ch
}

// Close unsubscribes and closes the event channel. It is safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs[s.userID], s)
		if len(s.hub.subs[s.userID]) == 0 {
			delete(s.hub.subs, s.userID)
		}
		s.hub.mu.Unlock()

		close(s.ch)
	})
}
