package caching

import (
	"context"
	"testing"
	"time"

	"reviso/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheService(client), mr
}

func TestActivePlans_RoundTripAndExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetActivePlans(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	plans := []*models.SubscriptionPlan{
		{ID: uuid.New(), Code: "starter", Name: "Starter", PriceRef: "price_1", MaxUsers: 3, Active: true},
	}
	require.NoError(t, cache.SetActivePlans(ctx, plans, time.Minute))

	cached, ok, err := cache.GetActivePlans(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "starter", cached[0].Code)
	assert.Empty(t, cached[0].PriceRef, "price references stay out of the cache")

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.GetActivePlans(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscriptionStatus(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	agencyID := uuid.New()

	require.NoError(t, cache.SetSubscriptionStatus(ctx, agencyID, models.StatusPastDue, time.Minute))
	status, ok, err := cache.GetSubscriptionStatus(ctx, agencyID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.StatusPastDue, status)

	require.NoError(t, cache.InvalidateSubscriptionStatus(ctx, agencyID))
	_, ok, err = cache.GetSubscriptionStatus(ctx, agencyID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPing(t *testing.T) {
	cache, _ := newTestCache(t)
	assert.NoError(t, cache.Ping(context.Background()))
}
