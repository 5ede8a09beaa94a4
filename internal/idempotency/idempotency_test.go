package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flash-wallet/flash_ledger/internal/lock"
)

type heldLocker struct{}

func (heldLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return lock.ErrLockHeld
}

func TestRunExecutesOnce(t *testing.T) {
	locker := lock.NewMemoryLocker()
	store := map[string]string{}
	calls := 0

	run := func() (Outcome[string], error) {
		return Run(context.Background(), locker, "ext-1",
			func(context.Context) (string, bool, error) {
				v, ok := store["ext-1"]
				return v, ok, nil
			},
			func(context.Context) (string, error) {
				calls++
				store["ext-1"] = "entry-1"
				return "entry-1", nil
			})
	}

	first, err := run()
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, "entry-1", first.Value)

	second, err := run()
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, "entry-1", second.Value)
	assert.Equal(t, 1, calls)
}

func TestRunHeldLockIsDuplicate(t *testing.T) {
	out, err := Run(context.Background(), heldLocker{}, "k",
		func(context.Context) (int, bool, error) {
			t.Fatal("lookup must not run without the lock")
			return 0, false, nil
		},
		func(context.Context) (int, error) {
			t.Fatal("execute must not run without the lock")
			return 0, nil
		})
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
}

func TestRunPropagatesErrors(t *testing.T) {
	locker := lock.NewMemoryLocker()
	lookupErr := errors.New("store down")

	_, err := Run(context.Background(), locker, "k",
		func(context.Context) (int, bool, error) { return 0, false, lookupErr },
		func(context.Context) (int, error) {
			t.Fatal("execute must not run after a failed lookup")
			return 0, nil
		})
	assert.ErrorIs(t, err, lookupErr)

	execErr := errors.New("unbalanced")
	_, err = Run(context.Background(), locker, "k",
		func(context.Context) (int, bool, error) { return 0, false, nil },
		func(context.Context) (int, error) { return 0, execErr })
	assert.ErrorIs(t, err, execErr)
}
