package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

// Direction is the side of the journal a line is posted to.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Metadata travels with each line. Currency is the currency the counterparty
// deals in, which may differ from the unit of account of the line amount.
type Metadata struct {
	TransactionType       TransactionType `json:"type"`
	Currency              money.Code      `json:"currency,omitempty"`
	Pending               bool            `json:"pending"`
	ExternalTransactionID string          `json:"external_id,omitempty"`
	Provider              string          `json:"provider,omitempty"`
	PaymentHash           string          `json:"payment_hash,omitempty"`
	CorrelationID         string          `json:"correlation_id,omitempty"`
	Rail                  Rail            `json:"rail,omitempty"`
	DisplayAmount         *money.Money    `json:"display_amount,omitempty"`
}

// Line is one debit or credit of an entry.
type Line struct {
	Account   AccountPath `json:"account"`
	Amount    money.Money `json:"amount"`
	Direction Direction   `json:"direction"`
	Meta      Metadata    `json:"meta"`
}

// Draft is an entry that has not been validated or persisted yet.
type Draft struct {
	Memo  string
	Lines []Line
}

// NewDraft starts an empty draft.
func NewDraft(memo string) *Draft {
	return &Draft{Memo: memo}
}

func (d *Draft) Debit(account AccountPath, amount money.Money, meta Metadata) *Draft {
	d.Lines = append(d.Lines, Line{Account: account, Amount: amount, Direction: Debit, Meta: meta})
	return d
}

func (d *Draft) Credit(account AccountPath, amount money.Money, meta Metadata) *Draft {
	d.Lines = append(d.Lines, Line{Account: account, Amount: amount, Direction: Credit, Meta: meta})
	return d
}

// Validate checks every line and that debits equal credits exactly in each
// currency present on the draft.
func (d Draft) Validate() error {
	if len(d.Lines) == 0 {
		return fmt.Errorf("%w: entry %q has no lines", ErrInvalidLine, d.Memo)
	}

	debits := map[money.Code]decimal.Decimal{}
	credits := map[money.Code]decimal.Decimal{}
	for i, l := range d.Lines {
		if err := l.validate(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		code := l.Amount.Currency()
		switch l.Direction {
		case Debit:
			debits[code] = debits[code].Add(l.Amount.MinorUnits())
		case Credit:
			credits[code] = credits[code].Add(l.Amount.MinorUnits())
		}
	}

	codes := make([]string, 0, len(debits)+len(credits))
	seen := map[money.Code]bool{}
	for c := range debits {
		seen[c] = true
	}
	for c := range credits {
		seen[c] = true
	}
	for c := range seen {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)

	for _, c := range codes {
		code := money.Code(c)
		if !debits[code].Equal(credits[code]) {
			return fmt.Errorf("%w: %s debits %s != credits %s",
				ErrUnbalancedEntry, code, debits[code].String(), credits[code].String())
		}
	}
	return nil
}

func (l Line) validate() error {
	if !l.Account.Valid() {
		return fmt.Errorf("%w: account path %q", ErrInvalidLine, l.Account.String())
	}
	if l.Direction != Debit && l.Direction != Credit {
		return fmt.Errorf("%w: direction %q", ErrInvalidLine, l.Direction)
	}
	if !l.Amount.Currency().Valid() {
		return fmt.Errorf("%w: currency %q on %s", ErrInvalidLine, l.Amount.Currency(), l.Account)
	}
	if !l.Amount.IsPositive() {
		return fmt.Errorf("%w: non-positive amount %s on %s", ErrInvalidLine, l.Amount, l.Account)
	}
	if !l.Amount.IsWhole() {
		return fmt.Errorf("%w: fractional minor units %s on %s",
			ErrInvalidLine, l.Amount.ToMinorUnitsString(8), l.Account)
	}
	return nil
}

// Entry is a posted, immutable journal entry.
type Entry struct {
	ID        string    `json:"id"`
	Memo      string    `json:"memo"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionType returns the type of the first line. Recorders tag every
// line of an entry with the same primary type, with float and drift lines
// as the exceptions.
func (e Entry) TransactionType() TransactionType {
	if len(e.Lines) == 0 {
		return ""
	}
	return e.Lines[0].Meta.TransactionType
}

// WalletIDs lists the distinct wallets the entry touches, in line order.
func (e Entry) WalletIDs() []string {
	var out []string
	seen := map[string]bool{}
	for _, l := range e.Lines {
		if id, ok := l.Account.WalletID(); ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// LinesFor returns the lines posted to exactly account.
func (e Entry) LinesFor(account AccountPath) []Line {
	var out []Line
	for _, l := range e.Lines {
		if l.Account.Equal(account) {
			out = append(out, l)
		}
	}
	return out
}

func (e Entry) matchesExternal(externalID, provider string) bool {
	for _, l := range e.Lines {
		if l.Meta.ExternalTransactionID == externalID && l.Meta.Provider == provider {
			return true
		}
	}
	return false
}

func (e Entry) matchesCorrelation(correlationID string) bool {
	for _, l := range e.Lines {
		if l.Meta.CorrelationID == correlationID {
			return true
		}
	}
	return false
}

// signed returns the line amount as credits-minus-debits.
func (l Line) signed() decimal.Decimal {
	if l.Direction == Debit {
		return l.Amount.MinorUnits().Neg()
	}
	return l.Amount.MinorUnits()
}
