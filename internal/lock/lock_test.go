package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/logging"
	"github.com/flash-wallet/flash_ledger/internal/obs"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis, *obs.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	metrics := obs.NewMetrics(prometheus.NewRegistry())
	return NewRedisLocker(client, 5*time.Second, logging.Discard(), metrics), mr, metrics
}

func TestRedisLocker_HeldKeyIsRejected(t *testing.T) {
	l, mr, metrics := newRedisLocker(t)
	ctx := context.Background()

	err := l.WithLock(ctx, "topup:fygaro:ext-1", func(ctx context.Context) error {
		assert.True(t, mr.Exists(keyPrefix+"topup:fygaro:ext-1"))
		inner := l.WithLock(ctx, "topup:fygaro:ext-1", func(context.Context) error {
			t.Fatal("inner fn must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockHeld)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(keyPrefix+"topup:fygaro:ext-1"), "lock must be released")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LockContention))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	l, mr, _ := newRedisLocker(t)

	err := l.WithLock(context.Background(), "k", func(context.Context) error {
		// Simulate expiry and another holder taking the key.
		require.NoError(t, mr.Set(keyPrefix+"k", "someone-else"))
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get(keyPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_PropagatesFnError(t *testing.T) {
	l, mr, _ := newRedisLocker(t)
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(keyPrefix+"k"))
}

func TestRedisLocker_UnavailableRedis(t *testing.T) {
	l, mr, _ := newRedisLocker(t)
	mr.Close()

	err := l.WithLock(context.Background(), "k", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
	assert.True(t, ledger.IsRetryable(err), "redis outage should be retryable: %v", err)
}

func TestMemoryLocker_ExclusiveUnderConcurrency(t *testing.T) {
	l := NewMemoryLocker()
	var ran, held int32
	start := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := l.WithLock(context.Background(), "k", func(context.Context) error {
				atomic.AddInt32(&ran, 1)
				<-release
				return nil
			})
			if errors.Is(err, ErrLockHeld) {
				if atomic.AddInt32(&held, 1) == 7 {
					close(release)
				}
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), ran)
	assert.Equal(t, int32(7), held)
}
