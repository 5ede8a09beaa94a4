package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flash-wallet/flash_ledger/internal/idempotency"
	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/lock"
	"github.com/flash-wallet/flash_ledger/internal/money"
	notify "github.com/flash-wallet/flash_ledger/internal/notification"
	"github.com/flash-wallet/flash_ledger/internal/obs"
)

// ErrInvalidTopup covers top-ups that can never be posted: missing ids,
// non-positive amounts, or a fee that consumes the whole amount.
var ErrInvalidTopup = errors.New("invalid top-up")

// Service records provider top-ups in the journal.
type Service struct {
	journal  *ledger.Journal
	locker   lock.Locker
	notifier notify.Notifier
	metrics  *obs.Metrics
	logger   *slog.Logger
}

// NewService prepares a funding service.
func NewService(journal *ledger.Journal, locker lock.Locker, notifier notify.Notifier, metrics *obs.Metrics, logger *slog.Logger) *Service {
	return &Service{journal: journal, locker: locker, notifier: notifier, metrics: metrics, logger: logger}
}

// TopupInput captures a provider-reported deposit into a wallet.
type TopupInput struct {
	RecipientWalletID     string
	BankOwnerWalletID     string
	Amount                money.Money
	Provider              string
	ExternalTransactionID string
	Fee                   *money.Money
}

// TopupResult is the posted entry, or the prior one on a duplicate delivery.
type TopupResult struct {
	Entry     ledger.Entry
	Duplicate bool
}

// BuildTopupDraft moves the gross amount out of the provider's clearing
// account into the recipient's wallet and the top-up fee revenue, plus the
// float movement on the bank owner's wallet.
func BuildTopupDraft(in TopupInput) (ledger.Draft, error) {
	if in.ExternalTransactionID == "" || in.Provider == "" {
		return ledger.Draft{}, fmt.Errorf("%w: external transaction id and provider are required", ErrInvalidTopup)
	}
	if in.RecipientWalletID == "" || in.BankOwnerWalletID == "" {
		return ledger.Draft{}, fmt.Errorf("%w: recipient and bank owner wallets are required", ErrInvalidTopup)
	}

	gross := in.Amount.Round()
	if !gross.IsPositive() {
		return ledger.Draft{}, fmt.Errorf("%w: amount %s", ErrInvalidTopup, in.Amount)
	}
	fee := money.ZeroOf(gross.Currency())
	if in.Fee != nil {
		if in.Fee.Currency() != gross.Currency() {
			return ledger.Draft{}, fmt.Errorf("%w: fee in %s, amount in %s",
				ledger.ErrCurrencyMismatch, in.Fee.Currency(), gross.Currency())
		}
		fee = in.Fee.Round()
		if fee.IsNegative() {
			return ledger.Draft{}, fmt.Errorf("%w: negative fee %s", ErrInvalidTopup, fee)
		}
	}
	net, err := gross.Subtract(fee)
	if err != nil {
		return ledger.Draft{}, err
	}
	if !net.IsPositive() {
		return ledger.Draft{}, fmt.Errorf("%w: fee %s covers amount %s", ErrInvalidTopup, fee, gross)
	}

	meta := ledger.Metadata{
		TransactionType:       ledger.TypeTopup,
		Currency:              gross.Currency(),
		ExternalTransactionID: in.ExternalTransactionID,
		Provider:              in.Provider,
		Rail:                  ledger.RailBank,
	}
	float := meta
	float.TransactionType = ledger.TypeTopupFloat

	d := ledger.NewDraft("topup via "+in.Provider).
		Debit(ledger.External(in.Provider), gross, meta).
		Credit(ledger.Ibex(in.RecipientWalletID), net, meta)
	if fee.IsPositive() {
		d.Credit(ledger.TopupFees(), fee, meta)
	}
	d.Debit(ledger.Ibex(in.BankOwnerWalletID), net, float).
		Credit(ledger.Ibex(in.BankOwnerWalletID), net, float)
	return *d, nil
}

// RecordTopup posts the top-up once per (external id, provider). Repeated and
// concurrent deliveries come back with Duplicate set.
func (s *Service) RecordTopup(ctx context.Context, in TopupInput) (TopupResult, error) {
	draft, err := BuildTopupDraft(in)
	if err != nil {
		return TopupResult{}, err
	}

	key := "topup:" + in.Provider + ":" + in.ExternalTransactionID
	outcome, err := idempotency.Run(ctx, s.locker, key,
		func(ctx context.Context) (ledger.Entry, bool, error) {
			return s.TopupByExternalID(ctx, in.ExternalTransactionID, in.Provider)
		},
		func(ctx context.Context) (ledger.Entry, error) {
			return s.journal.Post(ctx, draft)
		})
	if err != nil {
		return TopupResult{}, err
	}
	if outcome.Duplicate {
		s.metrics.ObserveDuplicate("topup")
		s.logger.Info("duplicate top-up",
			slog.String("provider", in.Provider),
			slog.String("external_id", in.ExternalTransactionID))
		return TopupResult{Entry: outcome.Value, Duplicate: true}, nil
	}

	s.notify(ctx, in.RecipientWalletID, outcome.Value)
	return TopupResult{Entry: outcome.Value}, nil
}

// TopupByExternalID finds the entry posted for a provider's transaction.
func (s *Service) TopupByExternalID(ctx context.Context, externalID, provider string) (ledger.Entry, bool, error) {
	return s.journal.FindByExternalID(ctx, externalID, provider)
}

func (s *Service) notify(ctx context.Context, walletID string, entry ledger.Entry) {
	if s.notifier == nil {
		return
	}
	lines := entry.LinesFor(ledger.Ibex(walletID))
	if len(lines) == 0 {
		return
	}
	err := s.notifier.Send(ctx, notify.Message{
		Kind:        notify.KindTopupCredited,
		Destination: walletID,
		Body:        fmt.Sprintf("Your wallet was topped up with %s", lines[0].Amount),
	})
	if err != nil {
		s.logger.Warn("top-up notification failed", slog.String("entry_id", entry.ID), slog.Any("error", err))
	}
}
