package alertstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/testutil"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	testAlertStoreContract(t, func(t *testing.T) firingAlertStore {
		if err := client.FlushDB(ctx).Err(); err != nil {
			t.Fatalf("failed to flush redis: %v", err)
		}
		store := NewRedisStore(client, time.UTC)
		store.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }
		return store
	})
}

func TestRedisStoreClaimSkipsCanceledOccurrence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	store := NewRedisStore(client, time.UTC)
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	occ := newTestOccurrence("med-1", "user-1", "08:00", base, true)

	if _, err := store.Schedule(ctx, occ); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readData, err := client.HGet(ctx, occurrencesKey, occ.ID).Result()
	if err != nil {
		t.Fatalf("failed to read record: %v", err)
	}

	// A cancel that lands between the read and the claim must win.
	if err := store.Cancel(ctx, occ.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, won, err := store.claim(ctx, occ, readData, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Error("expected claim of a canceled occurrence to lose")
	}

	armed, err := store.ListArmed(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(armed) != 0 {
		t.Errorf("expected canceled occurrence to stay canceled, got %+v", armed)
	}
	delivered, err := store.ListDelivered(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(delivered) != 0 {
		t.Errorf("expected no delivered alert, got %+v", delivered)
	}
}

func TestRedisStoreRecurringSurvivesRestartAfterClaim(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	occ := newTestOccurrence("med-1", "user-1", "08:00", base, true)

	first := NewRedisStore(client, time.UTC)
	if _, err := first.Schedule(ctx, occ); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fired, err := first.ClaimDue(ctx, base, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("expected 1 fired alert, got %d", len(fired))
	}

	// A fresh process sees the re-armed occurrence and the unanswered alert.
	restarted := NewRedisStore(client, time.UTC)
	restarted.now = func() time.Time { return base.Add(time.Minute) }

	armed, err := restarted.ListArmed(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(armed) != 1 {
		t.Fatalf("expected 1 armed occurrence after restart, got %d", len(armed))
	}
	if want := base.AddDate(0, 0, 1); !armed[0].FireAt.Equal(want) {
		t.Errorf("FireAt = %v, want %v", armed[0].FireAt, want)
	}

	delivered, err := restarted.ListDelivered(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(delivered) != 1 || delivered[0].InstanceID != fired[0].InstanceID {
		t.Errorf("expected pending alert %s, got %+v", fired[0].InstanceID, delivered)
	}

	next, err := restarted.ClaimDue(ctx, base.Add(48*time.Hour), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next) != 1 {
		t.Errorf("expected the next day's alert to fire, got %d", len(next))
	}
}

func TestRedisStoreConcurrentClaimFiresOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	seed := NewRedisStore(client, time.UTC)
	const count = 20
	for i := 0; i < count; i++ {
		occ := newTestOccurrence(fmt.Sprintf("med-%d", i), "user-1", "08:00", base, true)
		if _, err := seed.Schedule(ctx, occ); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replica := NewRedisStore(client, time.UTC)
			fired, err := replica.ClaimDue(ctx, base, count)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			total += len(fired)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != count {
		t.Errorf("expected %d fired alerts across replicas, got %d", count, total)
	}

	armed, err := seed.ListArmed(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(armed) != count {
		t.Fatalf("expected %d re-armed occurrences, got %d", count, len(armed))
	}
	for _, occ := range armed {
		if !occ.FireAt.Equal(base.AddDate(0, 0, 1)) {
			t.Errorf("%s re-armed at %v", occ.ID, occ.FireAt)
		}
	}
}

func TestRedisStoreWrapsUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	cleanup()

	store := NewRedisStore(client, time.UTC)
	_, err := store.ListArmed(ctx)
	if err == nil {
		t.Fatal("expected error from closed client")
	}
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
