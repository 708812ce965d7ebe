package presenter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

func batchFor(userID string) *domain.ModalBatch {
	return &domain.ModalBatch{
		UserID:    userID,
		ClockTime: "08:00",
		Items: []domain.BatchItem{
			{MedicationID: "med-1", UserID: userID, Name: "Aspirin", ClockTime: "08:00"},
		},
	}
}

func TestHubPresentWithoutSubscribers(t *testing.T) {
	hub := NewHub(0)
	assert.False(t, hub.Present(context.Background(), batchFor("user-1")))
	assert.False(t, hub.Present(context.Background(), nil))
}

func TestHubPresentDeliversToUserSubscribers(t *testing.T) {
	hub := NewHub(DefaultBufferSize)
	first := hub.Subscribe("user-1")
	second := hub.Subscribe("user-1")
	other := hub.Subscribe("user-2")
	defer first.Close()
	defer second.Close()
	defer other.Close()

	batch := batchFor("user-1")
	require.True(t, hub.Present(context.Background(), batch))

	assert.Same(t, batch, <-first.Events())
	assert.Same(t, batch, <-second.Events())
	assert.Empty(t, other.Events())
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe("user-1")
	defer sub.Close()

	assert.True(t, hub.Present(context.Background(), batchFor("user-1")))
	assert.False(t, hub.Present(context.Background(), batchFor("user-1")))
	assert.Len(t, sub.Events(), 1)
}

func TestSubscriptionClose(t *testing.T) {
	hub := NewHub(DefaultBufferSize)
	sub := hub.Subscribe("user-1")
	require.Equal(t, 1, hub.Subscribers("user-1"))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers("user-1"))
	_, open := <-sub.Events()
	assert.False(t, open)
	assert.False(t, hub.Present(context.Background(), batchFor("user-1")))
}

func TestHubConcurrentPresentAndClose(t *testing.T) {
	hub := NewHub(DefaultBufferSize)

	var wg sync.WaitGroup
	for range 20 {
		sub := hub.Subscribe("user-1")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 10 {
				hub.Present(context.Background(), batchFor("user-1"))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Subscribers("user-1"))
}
