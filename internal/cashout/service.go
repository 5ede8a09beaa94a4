package cashout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flash-wallet/flash_ledger/internal/idempotency"
	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/lock"
	"github.com/flash-wallet/flash_ledger/internal/money"
	"github.com/flash-wallet/flash_ledger/internal/notification"
	"github.com/flash-wallet/flash_ledger/internal/obs"
)

// Config holds the platform settings cash-outs depend on.
type Config struct {
	FlashWalletID string
	// JMDSellRate is JMD per one USD, used to value JMD payouts in USD.
	JMDSellRate money.Amount[money.JMD]
}

// Service records cash-outs and their settlement in the journal.
type Service struct {
	journal  *ledger.Journal
	locker   lock.Locker
	notifier notification.Notifier
	metrics  *obs.Metrics
	logger   *slog.Logger
	cfg      Config
}

// NewService constructs a cash-out service.
func NewService(journal *ledger.Journal, locker lock.Locker, notifier notification.Notifier, metrics *obs.Metrics, logger *slog.Logger, cfg Config) *Service {
	return &Service{journal: journal, locker: locker, notifier: notifier, metrics: metrics, logger: logger, cfg: cfg}
}

// RecordCashOut books the liability owed to the user for an accepted offer.
func (s *Service) RecordCashOut(ctx context.Context, offer Offer) (ledger.Entry, error) {
	return s.journal.Post(ctx, BuildCashOutDraft(s.cfg.FlashWalletID, offer))
}

// RecordSettledCashOut clears the liability booked by settlement.LedgerTrxID.
// A settlement that was already recorded, or is being recorded by a
// concurrent delivery, is reported as a duplicate and nothing is posted.
func (s *Service) RecordSettledCashOut(ctx context.Context, settlement Settlement) (SettlementResult, error) {
	key := "cashout:settle:" + settlement.LedgerTrxID
	outcome, err := idempotency.Run(ctx, s.locker, key,
		func(ctx context.Context) (ledger.Entry, bool, error) {
			return s.journal.FindByCorrelationID(ctx, settlement.LedgerTrxID)
		},
		func(ctx context.Context) (ledger.Entry, error) {
			return s.settle(ctx, settlement)
		})
	if err != nil {
		return SettlementResult{}, err
	}
	if outcome.Duplicate {
		s.metrics.ObserveDuplicate("cashout_settlement")
		s.logger.Info("duplicate cash-out settlement", slog.String("ledger_trx_id", settlement.LedgerTrxID))
		return SettlementResult{Entry: outcome.Value, Duplicate: true}, nil
	}

	s.notify(ctx, outcome.Value, settlement.PaymentDetails.Sent)
	return SettlementResult{Entry: outcome.Value}, nil
}

func (s *Service) settle(ctx context.Context, settlement Settlement) (ledger.Entry, error) {
	original, err := s.journal.GetByID(ctx, settlement.LedgerTrxID)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.Entry{}, &ledger.ServiceError{Op: "settle cash out " + settlement.LedgerTrxID, Err: ledger.ErrNotFound}
	}
	if err != nil {
		return ledger.Entry{}, err
	}

	b, err := bookedLiability(original)
	if err != nil {
		return ledger.Entry{}, &ledger.ServiceError{Op: "settle cash out " + settlement.LedgerTrxID, Err: err}
	}

	sent := settlement.PaymentDetails.Sent
	if sent.Currency() != b.currency {
		return ledger.Entry{}, fmt.Errorf("%w: settled in %s, liability in %s",
			ledger.ErrCurrencyMismatch, sent.Currency(), b.currency)
	}
	if !sent.IsPositive() {
		return ledger.Entry{}, fmt.Errorf("%w: sent %s", ErrInvalidSettlement, sent)
	}

	sentUSD, err := s.toUSD(sent)
	if err != nil {
		return ledger.Entry{}, err
	}

	draft := buildSettlementDraft(settlement.LedgerTrxID, b, sent, sentUSD, settlement.PaymentDetails.ExternalTransactionID)
	return s.journal.Post(ctx, draft)
}

func (s *Service) toUSD(m money.Money) (money.Amount[money.USD], error) {
	switch m.Currency() {
	case money.USDCode:
		usd, err := money.As[money.USD](m)
		if err != nil {
			return money.Amount[money.USD]{}, err
		}
		return usd.Round(), nil
	case money.JMDCode:
		jmd, err := money.As[money.JMD](m)
		if err != nil {
			return money.Amount[money.USD]{}, err
		}
		if !s.cfg.JMDSellRate.IsPositive() {
			return money.Amount[money.USD]{}, fmt.Errorf("jmd sell rate is not configured")
		}
		return money.ConvertInverse[money.JMD, money.USD](jmd, s.cfg.JMDSellRate), nil
	default:
		return money.Amount[money.USD]{}, fmt.Errorf("%w: cannot settle in %s", ledger.ErrCurrencyMismatch, m.Currency())
	}
}

func (s *Service) notify(ctx context.Context, entry ledger.Entry, sent money.Money) {
	if s.notifier == nil {
		return
	}
	wallets := entry.WalletIDs()
	if len(wallets) == 0 {
		return
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindCashoutSettled,
		Destination: wallets[0],
		Body:        fmt.Sprintf("Your cash out of %s has been sent", sent),
	})
	if err != nil {
		s.logger.Warn("cash-out notification failed", slog.String("entry_id", entry.ID), slog.Any("error", err))
	}
}
