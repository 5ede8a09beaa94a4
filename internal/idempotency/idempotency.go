// Package idempotency runs webhook-triggered commands at most once per
// external key: lock the key, look for a prior result, and only then execute.
package idempotency

import (
	"context"
	"errors"

	"github.com/flash-wallet/flash_ledger/internal/lock"
)

// Outcome is the result of a command. Duplicate is set when the command was
// already processed or is being processed by a concurrent delivery; Value is
// then the prior result when one could be found.
type Outcome[T any] struct {
	Value     T
	Duplicate bool
}

// Run executes the command under an exclusive lock on key. lookup returns the
// stored result of an earlier run, if any; execute is only called when there
// is none. A held lock counts as already processed and is reported as a
// duplicate, not an error.
func Run[T any](
	ctx context.Context,
	locker lock.Locker,
	key string,
	lookup func(ctx context.Context) (T, bool, error),
	execute func(ctx context.Context) (T, error),
) (Outcome[T], error) {
	var out Outcome[T]
	err := locker.WithLock(ctx, key, func(ctx context.Context) error {
		prior, found, err := lookup(ctx)
		if err != nil {
			return err
		}
		if found {
			out = Outcome[T]{Value: prior, Duplicate: true}
			return nil
		}
		value, err := execute(ctx)
		if err != nil {
			return err
		}
		out = Outcome[T]{Value: value}
		return nil
	})
	if errors.Is(err, lock.ErrLockHeld) {
		return Outcome[T]{Duplicate: true}, nil
	}
	if err != nil {
		return Outcome[T]{}, err
	}
	return out, nil
}
