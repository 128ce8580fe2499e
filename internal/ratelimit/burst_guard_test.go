package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTokenBucketAllowsBurstThenDenies(t *testing.T) {
	_, client := newRedis(t)
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	bucket := newTokenBucket(client, fake)
	ctx := context.Background()
	policy := BurstPolicy{Rate: 1, Burst: 2}

	first, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	denied, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Equal(t, time.Second, denied.RetryAfter)

	fake.Advance(500 * time.Millisecond)
	halfway, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)
	assert.False(t, halfway.Allowed)
	assert.Equal(t, 500*time.Millisecond, halfway.RetryAfter)

	fake.Advance(500 * time.Millisecond)
	refilled, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, refilled.Allowed)
	assert.Equal(t, 0, refilled.Remaining)
}

func TestTokenBucketRefillIsCappedAtBurst(t *testing.T) {
	_, client := newRedis(t)
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	bucket := newTokenBucket(client, fake)
	ctx := context.Background()
	policy := BurstPolicy{Rate: 10, Burst: 3}

	_, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)

	fake.Advance(time.Hour)
	d, err := bucket.take(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestTokenBucketSetsExpiry(t *testing.T) {
	mr, client := newRedis(t)
	bucket := newTokenBucket(client, clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))

	_, err := bucket.take(context.Background(), "k", BurstPolicy{Rate: 5, Burst: 20})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, mr.TTL("k"))

	mr.FastForward(6 * time.Second)
	assert.False(t, mr.Exists("k"))
}

func TestTokenBucketRejectsInvalidArguments(t *testing.T) {
	_, client := newRedis(t)
	bucket := newTokenBucket(client, nil)
	ctx := context.Background()

	_, err := bucket.take(ctx, "", BurstPolicy{Rate: 1, Burst: 1})
	assert.Error(t, err)
	_, err = bucket.take(ctx, "k", BurstPolicy{Rate: 0, Burst: 1})
	assert.Error(t, err)
	_, err = bucket.take(ctx, "k", BurstPolicy{Rate: 1, Burst: 0})
	assert.Error(t, err)
}

func TestNilBurstGuardAllows(t *testing.T) {
	var guard *PublicBurstGuard
	assert.False(t, guard.Enabled())
	assert.True(t, guard.Allow(context.Background(), RouteSubmit, "10.0.0.1").Allowed)
}

func TestBurstGuardDisabledByConfig(t *testing.T) {
	guard, err := NewPublicBurstGuard(nil, config.Config{}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, guard)
}

func TestBurstGuardRequiresAddrAndPositivePolicies(t *testing.T) {
	_, err := NewPublicBurstGuard(nil, config.Config{RateLimit: config.RateLimitConfig{RedisEnabled: true}}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewPublicBurstGuard(nil, config.Config{RateLimit: config.RateLimitConfig{
		RedisEnabled: true,
		RedisAddr:    "127.0.0.1:6379",
	}}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewPublicBurstGuard(nil, config.Config{RateLimit: config.RateLimitConfig{
		RedisEnabled: true,
		RedisAddr:    "127.0.0.1:6379",
		PublicRate:   5,
		PublicBurst:  20,
		LoginRate:    1,
	}}, nil, zap.NewNop())
	assert.Error(t, err, "a route policy with only one half set is rejected")
}

func TestPoliciesFromConfig(t *testing.T) {
	fallback, routes, err := PoliciesFromConfig(config.RateLimitConfig{
		PublicRate:  5,
		PublicBurst: 20,
		LoginRate:   0.2,
		LoginBurst:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, BurstPolicy{Rate: 5, Burst: 20}, fallback)
	assert.Equal(t, map[string]BurstPolicy{RouteLogin: {Rate: 0.2, Burst: 5}}, routes)
}

func TestBurstGuardKeysBucketsPerRouteAndClient(t *testing.T) {
	mr, client := newRedis(t)
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	guard := newPublicBurstGuard(client, fake, zap.NewNop(),
		BurstPolicy{Rate: 1, Burst: 5},
		map[string]BurstPolicy{RouteLogin: {Rate: 0.2, Burst: 1}},
	)
	require.True(t, guard.Enabled())
	ctx := context.Background()

	assert.True(t, guard.Allow(ctx, RouteLogin, "10.0.0.1").Allowed)
	denied := guard.Allow(ctx, RouteLogin, "10.0.0.1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 5*time.Second, denied.RetryAfter)

	assert.True(t, guard.Allow(ctx, RouteLogin, "10.0.0.2").Allowed, "other clients keep their own bucket")
	assert.True(t, guard.Allow(ctx, RouteTrack, "10.0.0.1").Allowed, "other routes keep their own bucket")

	assert.True(t, mr.Exists("frontdesk:burst:/auth/login:{10.0.0.1}"))
	assert.True(t, mr.Exists("frontdesk:burst:/metrics/track:{10.0.0.1}"))
	assert.Equal(t, BurstPolicy{Rate: 1, Burst: 5}, guard.PolicyFor(RouteSubmit))
}

func TestBurstGuardFailsOpen(t *testing.T) {
	mr, client := newRedis(t)
	guard := newPublicBurstGuard(client, nil, zap.NewNop(), BurstPolicy{Rate: 1, Burst: 1}, nil)
	require.True(t, guard.Enabled())

	mr.Close()
	decision := guard.Allow(context.Background(), RouteTrack, "10.0.0.1")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Remaining)
}
