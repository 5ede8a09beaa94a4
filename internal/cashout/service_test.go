package cashout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/lock"
	"github.com/flash-wallet/flash_ledger/internal/logging"
	"github.com/flash-wallet/flash_ledger/internal/money"
	"github.com/flash-wallet/flash_ledger/internal/notification"
)

const flashWallet = "flash"

func cents(v int64) money.Amount[money.USD] { return money.FromMinorInt[money.USD](v) }

func jmdCents(v int64) money.Amount[money.JMD] { return money.FromMinorInt[money.JMD](v) }

type fixture struct {
	journal  *ledger.Journal
	notifier *notification.Recorder
	svc      *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	rate, err := money.JMDDollars("160")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	journal := ledger.NewJournal(ledger.NewInMemory(), logging.Discard())
	notifier := &notification.Recorder{}
	svc := NewService(journal, lock.NewMemoryLocker(), notifier, nil, logging.Discard(),
		Config{FlashWalletID: flashWallet, JMDSellRate: rate})
	return fixture{journal: journal, notifier: notifier, svc: svc}
}

// jmdOffer is a $100 cash-out: $98 owed to the user (J$15,680 at 160) and a
// $2 fee.
func jmdOffer() Offer {
	return Offer{
		UserWalletID: "user-1",
		IbexTrx:      IbexTransfer{PaymentHash: "hash-1", USDAmount: cents(10_000)},
		Liability:    Liability{USD: cents(9_800), JMD: jmdCents(1_568_000)},
		FlashFee:     cents(200),
	}
}

func balance(t *testing.T, j *ledger.Journal, path ledger.AccountPath) string {
	t.Helper()
	b, err := j.Balance(context.Background(), path, money.USDCode)
	if err != nil {
		t.Fatalf("balance %s: %v", path, err)
	}
	return b.ToMinorUnitsString(0)
}

func TestRecordCashOut_CreditsPayableWithLiability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.RecordCashOut(ctx, jmdOffer())
	if err != nil {
		t.Fatalf("record cash out: %v", err)
	}

	entries, err := f.journal.TransactionsByWallet(ctx, "user-1")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("expected the cash-out entry, got %+v", entries)
	}
	lines := entries[0].LinesFor(ledger.Payable("user-1"))
	if len(lines) != 1 || lines[0].Direction != ledger.Credit {
		t.Fatalf("expected one payable credit, got %+v", lines)
	}
	if !lines[0].Amount.Equal(cents(9_800).Money()) {
		t.Fatalf("expected payable credit of liability.usd, got %s", lines[0].Amount)
	}
	if lines[0].Meta.DisplayAmount == nil || !lines[0].Meta.DisplayAmount.Equal(jmdCents(1_568_000).Money()) {
		t.Fatalf("expected JMD display amount, got %v", lines[0].Meta.DisplayAmount)
	}
	if lines[0].Meta.Currency != money.JMDCode {
		t.Fatalf("expected JMD liability currency, got %s", lines[0].Meta.Currency)
	}

	if got := balance(t, f.journal, ledger.ServiceFees()); got != "200" {
		t.Fatalf("expected fee revenue 200, got %s", got)
	}
	if got := balance(t, f.journal, ledger.Ibex(flashWallet)); got != "-10000" {
		t.Fatalf("expected flash ibex -10000, got %s", got)
	}
}

func TestRecordCashOut_ZeroFeeHasNoRevenueLine(t *testing.T) {
	f := newFixture(t)
	offer := jmdOffer()
	offer.IbexTrx.USDAmount = cents(9_800)
	offer.FlashFee = money.Zero[money.USD]()

	entry, err := f.svc.RecordCashOut(context.Background(), offer)
	if err != nil {
		t.Fatalf("record cash out: %v", err)
	}
	if len(entry.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entry.Lines))
	}
}

func TestRecordCashOut_BrokenOfferIsRejected(t *testing.T) {
	f := newFixture(t)
	offer := jmdOffer()
	offer.FlashFee = cents(150)

	_, err := f.svc.RecordCashOut(context.Background(), offer)
	if !errors.Is(err, ledger.ErrUnbalancedEntry) {
		t.Fatalf("expected unbalanced entry, got %v", err)
	}
	if ledger.IsRetryable(err) {
		t.Fatal("unbalanced offers must not be retryable")
	}
	entries, _ := f.journal.TransactionsByWallet(context.Background(), "user-1")
	if len(entries) != 0 {
		t.Fatalf("expected nothing posted, got %d entries", len(entries))
	}
}

func settle(t *testing.T, f fixture, trxID string, sent money.Money) SettlementResult {
	t.Helper()
	res, err := f.svc.RecordSettledCashOut(context.Background(), Settlement{
		LedgerTrxID:    trxID,
		PaymentDetails: PaymentDetails{Sent: sent, ExternalTransactionID: "bank-1"},
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	return res
}

func TestRecordSettledCashOut_ExactAmountClearsPayable(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.svc.RecordCashOut(context.Background(), jmdOffer())

	res := settle(t, f, entry.ID, jmdCents(1_568_000).Money())
	if res.Duplicate {
		t.Fatal("first settlement must not be a duplicate")
	}
	if len(res.Entry.Lines) != 2 {
		t.Fatalf("expected no FX lines, got %d lines", len(res.Entry.Lines))
	}
	if got := balance(t, f.journal, ledger.Payable("user-1")); got != "0" {
		t.Fatalf("expected payable cleared, got %s", got)
	}
	if got := balance(t, f.journal, ledger.ExternalCash()); got != "9800" {
		t.Fatalf("expected external cash 9800, got %s", got)
	}

	msgs := f.notifier.Messages()
	if len(msgs) != 1 || msgs[0].Kind != notification.KindCashoutSettled || msgs[0].Destination != "user-1" {
		t.Fatalf("unexpected notifications %+v", msgs)
	}
}

func TestRecordSettledCashOut_LossDebitsForeignExchange(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.svc.RecordCashOut(context.Background(), jmdOffer())

	// J$16,000 at 160 is $100.00, $2.00 more than booked.
	settle(t, f, entry.ID, jmdCents(1_600_000).Money())

	if got := balance(t, f.journal, ledger.ForeignExchange()); got != "-200" {
		t.Fatalf("expected FX loss -200, got %s", got)
	}
	if got := balance(t, f.journal, ledger.Payable("user-1")); got != "0" {
		t.Fatalf("expected payable cleared, got %s", got)
	}
	if got := balance(t, f.journal, ledger.ExternalCash()); got != "10000" {
		t.Fatalf("expected external cash 10000, got %s", got)
	}
}

func TestRecordSettledCashOut_GainCreditsForeignExchange(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.svc.RecordCashOut(context.Background(), jmdOffer())

	// J$15,200 at 160 is $95.00, $3.00 less than booked.
	settle(t, f, entry.ID, jmdCents(1_520_000).Money())

	if got := balance(t, f.journal, ledger.ForeignExchange()); got != "300" {
		t.Fatalf("expected FX gain 300, got %s", got)
	}
	if got := balance(t, f.journal, ledger.Payable("user-1")); got != "0" {
		t.Fatalf("expected payable cleared, got %s", got)
	}
}

func TestRecordSettledCashOut_SubCentPayoutIsAllDrift(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.svc.RecordCashOut(context.Background(), jmdOffer())

	// J$0.50 at 160 is $0.003125, which rounds to zero cents.
	res := settle(t, f, entry.ID, jmdCents(50).Money())
	if len(res.Entry.Lines) != 2 {
		t.Fatalf("expected only the FX pair, got %d lines", len(res.Entry.Lines))
	}
	for _, l := range res.Entry.Lines {
		if l.Meta.TransactionType != ledger.TypeFXDrift {
			t.Fatalf("unexpected line type %s", l.Meta.TransactionType)
		}
	}
	if got := balance(t, f.journal, ledger.Payable("user-1")); got != "0" {
		t.Fatalf("expected payable cleared, got %s", got)
	}
	if got := balance(t, f.journal, ledger.ForeignExchange()); got != "9800" {
		t.Fatalf("expected FX gain 9800, got %s", got)
	}
	if got := balance(t, f.journal, ledger.ExternalCash()); got != "0" {
		t.Fatalf("expected no external cash movement, got %s", got)
	}

	again, err := f.svc.RecordSettledCashOut(context.Background(), Settlement{
		LedgerTrxID:    entry.ID,
		PaymentDetails: PaymentDetails{Sent: jmdCents(50).Money()},
	})
	if err != nil || !again.Duplicate {
		t.Fatalf("expected duplicate on redelivery, got %+v %v", again, err)
	}
}

func TestRecordSettledCashOut_USDLiability(t *testing.T) {
	f := newFixture(t)
	offer := jmdOffer()
	offer.Liability.JMD = money.Zero[money.JMD]()
	entry, _ := f.svc.RecordCashOut(context.Background(), offer)

	settle(t, f, entry.ID, cents(9_800).Money())
	if got := balance(t, f.journal, ledger.Payable("user-1")); got != "0" {
		t.Fatalf("expected payable cleared, got %s", got)
	}

	_, err := f.svc.RecordSettledCashOut(context.Background(), Settlement{
		LedgerTrxID:    entry.ID + "-other",
		PaymentDetails: PaymentDetails{Sent: cents(1).Money()},
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordSettledCashOut_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordSettledCashOut(context.Background(), Settlement{
		LedgerTrxID:    "missing",
		PaymentDetails: PaymentDetails{Sent: jmdCents(100).Money()},
	})
	var se *ledger.ServiceError
	if !errors.As(err, &se) || !errors.Is(err, ledger.ErrNotFound) || se.Retryable {
		t.Fatalf("expected non-retryable not-found service error, got %v", err)
	}
}

func TestRecordSettledCashOut_CurrencyMismatchPostsNothing(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.svc.RecordCashOut(context.Background(), jmdOffer())

	_, err := f.svc.RecordSettledCashOut(context.Background(), Settlement{
		LedgerTrxID:    entry.ID,
		PaymentDetails: PaymentDetails{Sent: cents(9_800).Money()},
	})
	if !errors.Is(err, ledger.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	entries, _ := f.journal.TransactionsByWallet(context.Background(), "user-1")
	if len(entries) != 1 {
		t.Fatalf("expected only the cash-out entry, got %d", len(entries))
	}
}

func TestRecordSettledCashOut_RejectsNonCashOutEntry(t *testing.T) {
	f := newFixture(t)
	meta := ledger.Metadata{TransactionType: ledger.TypeTopup}
	d := ledger.NewDraft("topup").
		Debit(ledger.External("fygaro"), cents(100).Money(), meta).
		Credit(ledger.Ibex("user-1"), cents(100).Money(), meta)
	entry, err := f.journal.Post(context.Background(), *d)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	_, err = f.svc.RecordSettledCashOut(context.Background(), Settlement{
		LedgerTrxID:    entry.ID,
		PaymentDetails: PaymentDetails{Sent: cents(100).Money()},
	})
	if !errors.Is(err, ErrNotCashOut) {
		t.Fatalf("expected not a cash-out, got %v", err)
	}
}

func TestRecordSettledCashOut_DuplicateDeliveries(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.svc.RecordCashOut(context.Background(), jmdOffer())

	first := settle(t, f, entry.ID, jmdCents(1_568_000).Money())
	second := settle(t, f, entry.ID, jmdCents(1_568_000).Money())
	if !second.Duplicate || second.Entry.ID != first.Entry.ID {
		t.Fatalf("expected duplicate returning %s, got %+v", first.Entry.ID, second)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.RecordSettledCashOut(context.Background(), Settlement{
				LedgerTrxID:    entry.ID,
				PaymentDetails: PaymentDetails{Sent: jmdCents(1_568_000).Money()},
			})
			if err != nil || !res.Duplicate {
				t.Errorf("expected duplicate, got %+v (%v)", res, err)
			}
		}()
	}
	wg.Wait()

	entries, _ := f.journal.TransactionsByWallet(context.Background(), "user-1")
	if len(entries) != 2 {
		t.Fatalf("expected cash-out and one settlement, got %d entries", len(entries))
	}
	if got := len(f.notifier.Messages()); got != 1 {
		t.Fatalf("expected a single notification, got %d", got)
	}
}
