package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediswrap "ms-payments/internal/order/redis"
)

func setupRedis(t *testing.T) (*rediswrap.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return rediswrap.NewRedis(client), mr
}

func TestAcquireReferenceLock(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	locked, err := r.AcquireReferenceLock(ctx, "ref_1")
	assert.NoError(t, err)
	assert.True(t, locked)

	locked, err = r.AcquireReferenceLock(ctx, "ref_1")
	assert.NoError(t, err)
	assert.False(t, locked, "second acquisition for the same reference must fail")

	locked, err = r.AcquireReferenceLock(ctx, "ref_2")
	assert.NoError(t, err)
	assert.True(t, locked, "different references lock independently")
}

func TestReleaseReferenceLock(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	_, err := r.AcquireReferenceLock(ctx, "ref_1")
	require.NoError(t, err)

	assert.NoError(t, r.ReleaseReferenceLock(ctx, "ref_1"))

	locked, err := r.AcquireReferenceLock(ctx, "ref_1")
	assert.NoError(t, err)
	assert.True(t, locked, "reference is lockable again after release")
}

func TestReleaseReferenceLockIdempotent(t *testing.T) {
	r, _ := setupRedis(t)

	assert.NoError(t, r.ReleaseReferenceLock(context.Background(), "ref_never_locked"))
}

func TestLockExpires(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	_, err := r.AcquireReferenceLock(ctx, "ref_1")
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)

	locked, err := r.AcquireReferenceLock(ctx, "ref_1")
	assert.NoError(t, err)
	assert.True(t, locked, "lock must expire so a crashed worker cannot wedge the reference")
}
