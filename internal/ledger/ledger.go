package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

var (
	// ErrNotFound is returned when no entry matches a lookup.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrUnbalancedEntry means a draft's debits and credits differ for some
	// currency. It indicates a bug in the code that built the draft and must
	// not be retried.
	ErrUnbalancedEntry = errors.New("unbalanced journal entry")

	// ErrInvalidLine covers malformed lines: non-positive or fractional
	// amounts, unknown currencies, invalid account paths.
	ErrInvalidLine = errors.New("invalid journal line")

	// ErrCurrencyMismatch is returned when a settlement or fee is denominated
	// in a different currency than the liability it relates to.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrDuplicateEntry is returned by stores asked to append an id twice.
	ErrDuplicateEntry = errors.New("duplicate journal entry id")
)

// ServiceError wraps failures of the ledger service. Retryable is set for
// persistence failures that a caller may retry with backoff.
type ServiceError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ledger service: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func storeError(op string, err error) error {
	return &ServiceError{Op: op, Err: err, Retryable: true}
}

// IsRetryable reports whether err is a transient ledger failure.
func IsRetryable(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Retryable
}

// TransactionType tags the business event behind a journal line.
type TransactionType string

const (
	TypeCashout           TransactionType = "cashout"
	TypeCashoutSettlement TransactionType = "cashout_settlement"
	TypeFXDrift           TransactionType = "fx_drift"
	TypeTopup             TransactionType = "topup"
	TypeTopupFloat        TransactionType = "topup_float"

	// TypeLightningReceive tags lightning receipts posted by the payment
	// provider sync. Rail lines are written outside this module.
	TypeLightningReceive TransactionType = "ln_receive"
)

// Rail names the settlement network a line moved over.
type Rail string

const (
	RailLightning Rail = "lightning"
	RailOnChain   Rail = "onchain"
	RailBank      Rail = "bank"
)

// Store is the persistence contract of the journal. Append must be atomic:
// either every line of the entry is stored or none is.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id string) (Entry, error)
	// ListByWallet returns entries with a line on the wallet's Ibex or
	// Payable account, newest first.
	ListByWallet(ctx context.Context, walletID string) ([]Entry, error)
	FindByExternalID(ctx context.Context, externalID, provider string) (Entry, error)
	FindByCorrelationID(ctx context.Context, correlationID string) (Entry, error)
	// Balance is credits minus debits over path and its sub-paths.
	Balance(ctx context.Context, path AccountPath, currency money.Code) (money.Money, error)
}
