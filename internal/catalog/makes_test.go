package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakesCacheServesDefaultsWithoutFetch(t *testing.T) {
	c := NewMakesCache(nil, time.Minute)
	makes, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultMakes, makes)
}

func TestMakesCacheCachesUntilTTL(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"Toyota", "Honda"}, nil
	}

	clock := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	c := NewMakesCache(fetch, 5*time.Minute)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	_, err := c.Get(ctx)
	require.NoError(t, err)
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read within TTL must not refetch")

	clock = clock.Add(6 * time.Minute)
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "read past TTL refetches")
}

func TestMakesCacheServesStaleOnFetchFailure(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"Ford"}, nil
		}
		return nil, errors.New("source down")
	}

	clock := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	c := NewMakesCache(fetch, time.Minute)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	first, err := c.Get(ctx)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	second, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMakesCacheErrorWithNoPreviousValue(t *testing.T) {
	fetch := func(ctx context.Context) ([]string, error) {
		return nil, errors.New("source down")
	}
	c := NewMakesCache(fetch, time.Minute)
	_, err := c.Get(context.Background())
	assert.Error(t, err)
}

func TestMakesCacheInvalidate(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"Subaru"}, nil
	}
	c := NewMakesCache(fetch, time.Hour)

	ctx := context.Background()
	_, err := c.Get(ctx)
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMakesCacheEmptyFetchFallsBack(t *testing.T) {
	fetch := func(ctx context.Context) ([]string, error) {
		return nil, nil
	}
	c := NewMakesCache(fetch, time.Minute)
	makes, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultMakes, makes)
}
