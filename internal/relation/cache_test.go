package relation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobis-cli/gobis/internal/openbis"
)

func countingFetch(calls *int32, entries []openbis.CatalogEntry, err error) FetchFunc {
	return func(ctx context.Context) ([]openbis.CatalogEntry, error) {
		atomic.AddInt32(calls, 1)
		return entries, err
	}
}

func TestCache_HitWithinTTL(t *testing.T) {
	cache := NewCache()
	fp := NewFingerprint("children", "DS-1", nil)
	want := []openbis.CatalogEntry{{ID: "DS-CHILD", Type: openbis.TypeDataset}}

	var calls int32
	got, stats, err := cache.GetOrFetch(context.Background(), fp, countingFetch(&calls, want, nil))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, stats.FromCache)

	got, stats, err = cache.GetOrFetch(context.Background(), fp, countingFetch(&calls, nil, errors.New("should not run")))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, stats.FromCache)
	assert.Equal(t, int32(1), calls)
}

func TestCache_ExpiryTriggersRefetch(t *testing.T) {
	cache := NewCache(WithTTL(50 * time.Millisecond))
	fp := NewFingerprint("children", "DS-1", nil)

	var calls int32
	fetch := countingFetch(&calls, []openbis.CatalogEntry{{ID: "DS-CHILD"}}, nil)

	_, _, err := cache.GetOrFetch(context.Background(), fp, fetch)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, stats, err := cache.GetOrFetch(context.Background(), fp, fetch)
	require.NoError(t, err)
	assert.False(t, stats.FromCache)
	assert.Equal(t, int32(2), calls)
}

func TestCache_SingleFlight(t *testing.T) {
	cache := NewCache()
	fp := NewFingerprint("children", "DS-1", nil)
	want := []openbis.CatalogEntry{{ID: "DS-CHILD"}}

	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) ([]openbis.CatalogEntry, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return want, nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([][]openbis.CatalogEntry, waiters)
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = cache.GetOrFetch(context.Background(), fp, fetch)
		}(i)
	}

	// Give every goroutine time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls)
	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestCache_DistinctFingerprintsFetchIndependently(t *testing.T) {
	cache := NewCache()

	var calls int32
	fetch := countingFetch(&calls, []openbis.CatalogEntry{{ID: "DS-X"}}, nil)

	_, _, err := cache.GetOrFetch(context.Background(), NewFingerprint("children", "DS-1", nil), fetch)
	require.NoError(t, err)
	_, _, err = cache.GetOrFetch(context.Background(), NewFingerprint("children", "DS-2", nil), fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls)
	assert.Equal(t, 2, cache.Len())
}

func TestCache_FetchErrorNotCached(t *testing.T) {
	cache := NewCache()
	fp := NewFingerprint("children", "DS-1", nil)
	upstream := &openbis.ConnectionError{Op: "getChildren", URL: "https://catalog", Err: errors.New("refused")}

	var calls int32
	_, _, err := cache.GetOrFetch(context.Background(), fp, countingFetch(&calls, nil, upstream))
	require.Error(t, err)
	assert.True(t, IsFetchError(err))

	// Unwrap reaches the gateway error; no negative caching happened.
	var ce *openbis.ConnectionError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, cache.Len())

	_, _, err = cache.GetOrFetch(context.Background(), fp, countingFetch(&calls, nil, upstream))
	require.Error(t, err)
	assert.Equal(t, int32(2), calls)
}

func TestCache_InvalidateAndClear(t *testing.T) {
	cache := NewCache()
	fpA := NewFingerprint("children", "DS-A", nil)
	fpB := NewFingerprint("children", "DS-B", nil)

	var calls int32
	fetch := countingFetch(&calls, []openbis.CatalogEntry{{ID: "DS-X"}}, nil)
	_, _, err := cache.GetOrFetch(context.Background(), fpA, fetch)
	require.NoError(t, err)
	_, _, err = cache.GetOrFetch(context.Background(), fpB, fetch)
	require.NoError(t, err)

	cache.Invalidate(fpA)
	assert.Equal(t, 1, cache.Len())

	_, stats, err := cache.GetOrFetch(context.Background(), fpA, fetch)
	require.NoError(t, err)
	assert.False(t, stats.FromCache)
	assert.Equal(t, int32(3), calls)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ValueReplacedWholesale(t *testing.T) {
	cache := NewCache(WithTTL(30 * time.Millisecond))
	fp := NewFingerprint("children", "DS-1", nil)

	first := []openbis.CatalogEntry{{ID: "DS-OLD"}}
	second := []openbis.CatalogEntry{{ID: "DS-NEW-1"}, {ID: "DS-NEW-2"}}

	got, _, err := cache.GetOrFetch(context.Background(), fp, func(context.Context) ([]openbis.CatalogEntry, error) {
		return first, nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	time.Sleep(50 * time.Millisecond)

	got, _, err = cache.GetOrFetch(context.Background(), fp, func(context.Context) ([]openbis.CatalogEntry, error) {
		return second, nil
	})
	require.NoError(t, err)
	assert.Equal(t, second, got)
}
