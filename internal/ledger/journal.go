package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/flash-wallet/flash_ledger/internal/events"
	"github.com/flash-wallet/flash_ledger/internal/ids"
	"github.com/flash-wallet/flash_ledger/internal/money"
	"github.com/flash-wallet/flash_ledger/internal/obs"
)

// Journal validates drafts and appends them to a Store. It holds no mutable
// state of its own and is safe for concurrent use.
type Journal struct {
	store     Store
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *obs.Metrics
	now       func() time.Time
	newID     func() string
}

// Option configures a Journal.
type Option func(*Journal)

// WithPublisher sets the sink for entry-posted events.
func WithPublisher(p events.Publisher) Option {
	return func(j *Journal) {
		if p != nil {
			j.publisher = p
		}
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(j *Journal) { j.metrics = m }
}

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJournal builds the journal engine on top of store.
func NewJournal(store Store, logger *slog.Logger, opts ...Option) *Journal {
	j := &Journal{
		store:     store,
		logger:    logger,
		publisher: events.Noop{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     ids.New,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Post validates the draft and appends it atomically. Validation failures
// wrap ErrUnbalancedEntry or ErrInvalidLine and are never retryable; store
// failures come back as a retryable *ServiceError.
func (j *Journal) Post(ctx context.Context, draft Draft) (Entry, error) {
	start := time.Now()

	if err := draft.Validate(); err != nil {
		payload, _ := json.Marshal(draft)
		j.logger.Error("journal draft rejected",
			slog.String("memo", draft.Memo),
			slog.String("payload", string(payload)),
			slog.Any("error", err))
		j.metrics.ObserveFailure(failureReason(err))
		return Entry{}, err
	}

	entry := Entry{
		ID:        j.newID(),
		Memo:      draft.Memo,
		Lines:     draft.Lines,
		CreatedAt: j.now(),
	}

	if err := j.store.Append(ctx, entry); err != nil {
		j.logger.Warn("journal append failed", slog.String("memo", draft.Memo), slog.Any("error", err))
		j.metrics.ObserveFailure("store")
		return Entry{}, storeError("append entry", err)
	}

	j.metrics.ObservePosted(string(entry.TransactionType()), time.Since(start).Seconds())
	j.publish(ctx, entry)
	return entry, nil
}

func (j *Journal) publish(ctx context.Context, entry Entry) {
	event := events.EntryPosted{
		EntryID:         entry.ID,
		Memo:            entry.Memo,
		TransactionType: string(entry.TransactionType()),
		WalletIDs:       entry.WalletIDs(),
		CreatedAt:       entry.CreatedAt,
	}
	for _, l := range entry.Lines {
		event.Lines = append(event.Lines, events.PostedLine{
			Account:   l.Account.String(),
			Direction: string(l.Direction),
			Amount:    l.Amount,
			Pending:   l.Meta.Pending,
		})
	}
	if err := j.publisher.PublishEntryPosted(ctx, event); err != nil {
		j.logger.Warn("publish entry posted", slog.String("entry_id", entry.ID), slog.Any("error", err))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnbalancedEntry):
		return "unbalanced"
	case errors.Is(err, ErrInvalidLine):
		return "invalid_line"
	default:
		return "other"
	}
}

// GetByID returns ErrNotFound when no entry has the id.
func (j *Journal) GetByID(ctx context.Context, id string) (Entry, error) {
	entry, err := j.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, storeError("get entry", err)
	}
	return entry, nil
}

// TransactionsByWallet returns the wallet's entries, newest first.
func (j *Journal) TransactionsByWallet(ctx context.Context, walletID string) ([]Entry, error) {
	entries, err := j.store.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, storeError("list wallet entries", err)
	}
	return entries, nil
}

// FindByExternalID looks up the entry recorded for a provider's transaction.
func (j *Journal) FindByExternalID(ctx context.Context, externalID, provider string) (Entry, bool, error) {
	entry, err := j.store.FindByExternalID(ctx, externalID, provider)
	return found(entry, err, "find by external id")
}

// FindByCorrelationID looks up an entry that references another by id.
func (j *Journal) FindByCorrelationID(ctx context.Context, correlationID string) (Entry, bool, error) {
	entry, err := j.store.FindByCorrelationID(ctx, correlationID)
	return found(entry, err, "find by correlation id")
}

func found(entry Entry, err error, op string) (Entry, bool, error) {
	switch {
	case err == nil:
		return entry, true, nil
	case errors.Is(err, ErrNotFound):
		return Entry{}, false, nil
	default:
		return Entry{}, false, storeError(op, err)
	}
}

// Balance returns credits minus debits over path and its sub-paths.
func (j *Journal) Balance(ctx context.Context, path AccountPath, currency money.Code) (money.Money, error) {
	bal, err := j.store.Balance(ctx, path, currency)
	if err != nil {
		return money.Money{}, storeError("balance", err)
	}
	return bal, nil
}
