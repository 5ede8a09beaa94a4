package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

type inMemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	byID     map[string]int
	byWallet map[string][]int
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit
// tests and local development.
func NewInMemory() Store {
	return &inMemoryStore{
		byID:     make(map[string]int),
		byWallet: make(map[string][]int),
	}
}

func (s *inMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[entry.ID]; exists {
		return ErrDuplicateEntry
	}

	idx := len(s.entries)
	s.entries = append(s.entries, cloneEntry(entry))
	s.byID[entry.ID] = idx
	for _, walletID := range entry.WalletIDs() {
		s.byWallet[walletID] = append(s.byWallet[walletID], idx)
	}
	return nil
}

func (s *inMemoryStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return cloneEntry(s.entries[idx]), nil
}

func (s *inMemoryStore) ListByWallet(_ context.Context, walletID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs := s.byWallet[walletID]
	out := make([]Entry, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, cloneEntry(s.entries[idx]))
	}
	// ids are ULIDs, so lexical order is creation order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *inMemoryStore) FindByExternalID(_ context.Context, externalID, provider string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].matchesExternal(externalID, provider) {
			return cloneEntry(s.entries[i]), nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *inMemoryStore) FindByCorrelationID(_ context.Context, correlationID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].matchesCorrelation(correlationID) {
			return cloneEntry(s.entries[i]), nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *inMemoryStore) Balance(_ context.Context, path AccountPath, currency money.Code) (money.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, e := range s.entries {
		for _, l := range e.Lines {
			if l.Amount.Currency() == currency && path.Contains(l.Account) {
				total = total.Add(l.signed())
			}
		}
	}
	return money.NewMoney(total, currency)
}

func cloneEntry(e Entry) Entry {
	out := e
	out.Lines = make([]Line, len(e.Lines))
	for i, l := range e.Lines {
		l.Account = append(AccountPath(nil), l.Account...)
		if l.Meta.DisplayAmount != nil {
			amt := *l.Meta.DisplayAmount
			l.Meta.DisplayAmount = &amt
		}
		out.Lines[i] = l
	}
	return out
}
