// Package volume reports how much value moved in and out of a wallet over a
// settlement rail since a point in time.
package volume

import (
	"context"
	"time"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

// Query selects the wallet, currency and window start of a volume read.
type Query struct {
	WalletID string
	Currency money.Code
	Since    time.Time
}

// Volume is the gross flow into and out of a wallet, both non-negative.
type Volume struct {
	Incoming money.Money
	Outgoing money.Money
}

// Net returns incoming minus outgoing.
func (v Volume) Net() (money.Money, error) {
	return v.Incoming.Subtract(v.Outgoing)
}

// Source is implemented once per rail. Failures are *ledger.ServiceError.
type Source interface {
	VolumeSince(ctx context.Context, q Query) (Volume, error)
}

// EntryLister is the read side of the journal a LedgerSource needs.
type EntryLister interface {
	TransactionsByWallet(ctx context.Context, walletID string) ([]ledger.Entry, error)
}

// LedgerSource derives rail volume from the wallet's journal history. Credits
// to the wallet's Ibex account tagged with the rail count as incoming, debits
// as outgoing.
type LedgerSource struct {
	journal EntryLister
	rail    ledger.Rail
}

func NewLedgerSource(journal EntryLister, rail ledger.Rail) *LedgerSource {
	return &LedgerSource{journal: journal, rail: rail}
}

func (s *LedgerSource) VolumeSince(ctx context.Context, q Query) (Volume, error) {
	entries, err := s.journal.TransactionsByWallet(ctx, q.WalletID)
	if err != nil {
		return Volume{}, err
	}

	in := money.ZeroOf(q.Currency)
	out := money.ZeroOf(q.Currency)
	account := ledger.Ibex(q.WalletID)
	for _, e := range entries {
		if e.CreatedAt.Before(q.Since) {
			continue
		}
		for _, l := range e.LinesFor(account) {
			if l.Meta.Rail != s.rail || l.Amount.Currency() != q.Currency {
				continue
			}
			if l.Direction == ledger.Credit {
				in, err = in.Add(l.Amount)
			} else {
				out, err = out.Add(l.Amount)
			}
			if err != nil {
				return Volume{}, err
			}
		}
	}
	return Volume{Incoming: in, Outgoing: out}, nil
}
