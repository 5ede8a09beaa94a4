package events

import (
	"context"
	"sync"
	"time"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

// TopicEntryPosted carries one message per appended journal entry.
const TopicEntryPosted = "ledger.entry_posted"

// EntryPosted describes a journal entry after it has been persisted.
type EntryPosted struct {
	EntryID         string       `json:"entry_id"`
	Memo            string       `json:"memo"`
	TransactionType string       `json:"transaction_type"`
	WalletIDs       []string     `json:"wallet_ids"`
	Lines           []PostedLine `json:"lines"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PostedLine is the wire form of a journal line.
type PostedLine struct {
	Account   string      `json:"account"`
	Direction string      `json:"direction"`
	Amount    money.Money `json:"amount"`
	Pending   bool        `json:"pending"`
}

// Publisher delivers ledger events to downstream consumers.
type Publisher interface {
	PublishEntryPosted(ctx context.Context, event EntryPosted) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) PublishEntryPosted(context.Context, EntryPosted) error { return nil }

// MemoryPublisher keeps events in memory. Useful for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []EntryPosted
}

func (p *MemoryPublisher) PublishEntryPosted(_ context.Context, event EntryPosted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the published events.
func (p *MemoryPublisher) Events() []EntryPosted {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EntryPosted, len(p.events))
	copy(out, p.events)
	return out
}
