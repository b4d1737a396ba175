package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/issuecal/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	fetched := time.Unix(42, 0)
	store.SetClock(func() time.Time { return fetched })
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "acme/widgets")
	require.NoError(t, err)
	require.False(t, ok)

	events := []models.CalendarEvent{{Title: "a"}}
	require.NoError(t, store.Put(ctx, "acme/widgets", events))
	events[0].Title = "mutated"

	entry, ok, err := store.Get(ctx, "acme/widgets")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", entry.Events[0].Title)
	require.True(t, entry.FetchedAt.Equal(fetched))
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("acme/widgets", nil, time.Unix(100, 0))
	store.Seed("acme/gadgets", nil, time.Unix(500, 0))

	removed, err := store.Prune(context.Background(), "acme/widgets", time.Unix(200, 0))
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, "acme/widgets", []models.CalendarEvent{{Title: "x"}})
			_, _, _ = store.Get(ctx, "acme/widgets")
		}()
	}
	wg.Wait()

	entry, ok, err := store.Get(ctx, "acme/widgets")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entry.Events, 1)
}
