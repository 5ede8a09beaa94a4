package ledger

import (
	"context"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

// NewUnavailableStore returns a Store whose every call fails with err. It
// stands in for a database outage in tests of code built on the journal.
func NewUnavailableStore(err error) Store {
	return unavailableStore{err: err}
}

type unavailableStore struct{ err error }

func (s unavailableStore) Append(context.Context, Entry) error { return s.err }

func (s unavailableStore) Get(context.Context, string) (Entry, error) { return Entry{}, s.err }

func (s unavailableStore) ListByWallet(context.Context, string) ([]Entry, error) { return nil, s.err }

func (s unavailableStore) FindByExternalID(context.Context, string, string) (Entry, error) {
	return Entry{}, s.err
}

func (s unavailableStore) FindByCorrelationID(context.Context, string) (Entry, error) {
	return Entry{}, s.err
}

func (s unavailableStore) Balance(context.Context, AccountPath, money.Code) (money.Money, error) {
	return money.Money{}, s.err
}
