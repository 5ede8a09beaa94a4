package cashout

import (
	"errors"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

var (
	// ErrNotCashOut is returned when a settlement references an entry that
	// did not book a cash-out liability.
	ErrNotCashOut = errors.New("entry is not a cash-out")

	// ErrInvalidSettlement covers settlements with a non-positive amount.
	ErrInvalidSettlement = errors.New("invalid settlement")
)

// IbexTransfer is the provider-side transfer that funds a cash-out.
type IbexTransfer struct {
	PaymentHash string                  `json:"payment_hash"`
	USDAmount   money.Amount[money.USD] `json:"usd_amount"`
}

// Liability is what the platform owes the user, in USD and in the JMD amount
// quoted to them.
type Liability struct {
	USD money.Amount[money.USD] `json:"usd"`
	JMD money.Amount[money.JMD] `json:"jmd"`
}

// Currency is the currency the user will be paid out in: JMD when a JMD
// amount was quoted, USD otherwise.
func (l Liability) Currency() money.Code {
	if l.JMD.IsPositive() {
		return money.JMDCode
	}
	return money.USDCode
}

// Offer is a validated cash-out quote. The caller guarantees
// IbexTrx.USDAmount == Liability.USD + FlashFee.
type Offer struct {
	UserWalletID string                  `json:"user_wallet_id"`
	IbexTrx      IbexTransfer            `json:"ibex_trx"`
	Liability    Liability               `json:"liability"`
	FlashFee     money.Amount[money.USD] `json:"flash_fee"`
}

// PaymentDetails describes the bank transfer that paid the user.
type PaymentDetails struct {
	Sent                  money.Money `json:"sent"`
	ExternalTransactionID string      `json:"external_id"`
}

// Settlement reports that the cash-out booked by LedgerTrxID was paid out.
type Settlement struct {
	LedgerTrxID    string         `json:"ledger_trx_id"`
	PaymentDetails PaymentDetails `json:"payment_details"`
}

// SettlementResult is the settlement entry, or the prior one on a duplicate
// delivery. Entry is empty when a concurrent delivery held the lock.
type SettlementResult struct {
	Entry     ledger.Entry
	Duplicate bool
}

// BuildCashOutDraft moves the provider-side USD out of the platform wallet
// into the user's payable and the service fee revenue. Balance is checked by
// the journal, not here.
func BuildCashOutDraft(flashWalletID string, offer Offer) ledger.Draft {
	currency := offer.Liability.Currency()
	base := ledger.Metadata{
		TransactionType: ledger.TypeCashout,
		Currency:        currency,
		PaymentHash:     offer.IbexTrx.PaymentHash,
		Rail:            ledger.RailBank,
	}

	payableMeta := base
	if currency == money.JMDCode {
		display := offer.Liability.JMD.Money()
		payableMeta.DisplayAmount = &display
	}

	d := ledger.NewDraft("cash out").
		Debit(ledger.Ibex(flashWalletID), offer.IbexTrx.USDAmount.Money(), base).
		Credit(ledger.Payable(offer.UserWalletID), offer.Liability.USD.Money(), payableMeta)
	if !offer.FlashFee.IsZero() {
		d.Credit(ledger.ServiceFees(), offer.FlashFee.Money(), base)
	}
	return *d
}

// booked is what a cash-out entry recorded on the user's payable.
type booked struct {
	walletID string
	usd      money.Amount[money.USD]
	currency money.Code
}

func bookedLiability(entry ledger.Entry) (booked, error) {
	for _, l := range entry.Lines {
		if l.Account.Root() != ledger.RootPayable || l.Direction != ledger.Credit ||
			l.Meta.TransactionType != ledger.TypeCashout {
			continue
		}
		walletID, _ := l.Account.WalletID()
		usd, err := money.As[money.USD](l.Amount)
		if err != nil {
			return booked{}, err
		}
		currency := l.Meta.Currency
		if currency == "" {
			currency = money.USDCode
		}
		return booked{walletID: walletID, usd: usd, currency: currency}, nil
	}
	return booked{}, ErrNotCashOut
}

// buildSettlementDraft clears the user's payable against external cash at
// the USD value actually sent. Any difference from the booked liability is
// foreign exchange drift: a loss when more was sent, a gain when less was.
// A payout worth less than one cent has no cash pair; the whole liability
// is then drift.
func buildSettlementDraft(ledgerTrxID string, b booked, sent money.Money, sentUSD money.Amount[money.USD], externalID string) ledger.Draft {
	meta := ledger.Metadata{
		TransactionType:       ledger.TypeCashoutSettlement,
		Currency:              b.currency,
		CorrelationID:         ledgerTrxID,
		ExternalTransactionID: externalID,
		Rail:                  ledger.RailBank,
	}
	payableMeta := meta
	payableMeta.DisplayAmount = &sent

	payable := ledger.Payable(b.walletID)
	d := ledger.NewDraft("cash out settlement")
	if sentUSD.IsPositive() {
		d.Debit(payable, sentUSD.Money(), payableMeta).
			Credit(ledger.ExternalCash(), sentUSD.Money(), meta)
	}

	drift := sentUSD.Subtract(b.usd)
	fx := meta
	fx.TransactionType = ledger.TypeFXDrift
	if !sentUSD.IsPositive() {
		fx.DisplayAmount = &sent
	}
	switch {
	case drift.IsPositive():
		d.Debit(ledger.ForeignExchange(), drift.Money(), fx).
			Credit(payable, drift.Money(), fx)
	case drift.IsNegative():
		d.Debit(payable, drift.Abs().Money(), fx).
			Credit(ledger.ForeignExchange(), drift.Abs().Money(), fx)
	}
	return *d
}
