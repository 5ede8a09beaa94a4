package funding

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

// ErrUnknownProvider is returned for webhooks from a provider we do not
// integrate with.
var ErrUnknownProvider = errors.New("unknown top-up provider")

// Notification is a provider's report of funds received for a wallet.
type Notification struct {
	ExternalTransactionID string
	RecipientWalletID     string
	Amount                money.Money
	Fee                   *money.Money
}

// Provider decodes the webhook body of one funding provider.
type Provider interface {
	Name() string
	Decode(body []byte) (Notification, error)
}

// Providers indexes the integrated providers by name.
type Providers map[string]Provider

// DefaultProviders returns every provider the platform integrates with.
func DefaultProviders() Providers {
	return NewProviders(Fygaro{}, PayPal{}, Wise{})
}

func NewProviders(list ...Provider) Providers {
	out := make(Providers, len(list))
	for _, p := range list {
		out[p.Name()] = p
	}
	return out
}

func (p Providers) Lookup(name string) (Provider, error) {
	provider, ok := p[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return provider, nil
}

// Fygaro is the card acquirer used for Jamaican top-ups.
type Fygaro struct{}

func (Fygaro) Name() string { return "fygaro" }

func (Fygaro) Decode(body []byte) (Notification, error) {
	var p fygaroPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notification{}, fmt.Errorf("decode fygaro payload: %w", err)
	}
	return notification(p.TransactionID, p.Reference, p.Amount, p.Currency, p.Fee)
}

type PayPal struct{}

func (PayPal) Name() string { return "paypal" }

func (PayPal) Decode(body []byte) (Notification, error) {
	var p paypalPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notification{}, fmt.Errorf("decode paypal payload: %w", err)
	}
	r := p.Resource
	return notification(r.ID, r.CustomID, r.Amount.Value, r.Amount.CurrencyCode, r.Breakdown.PaypalFee.Value)
}

// Wise does not report a fee on incoming transfers.
type Wise struct{}

func (Wise) Name() string { return "wise" }

func (Wise) Decode(body []byte) (Notification, error) {
	var p wisePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notification{}, fmt.Errorf("decode wise payload: %w", err)
	}
	id := ""
	if p.Data.Resource.ID != 0 {
		id = strconv.FormatInt(p.Data.Resource.ID, 10)
	}
	return notification(id, p.Data.Reference, p.Data.Amount, p.Data.Currency, "")
}

func notification(externalID, walletID, amount, currency, fee string) (Notification, error) {
	if externalID == "" {
		return Notification{}, fmt.Errorf("%w: missing transaction id", ErrInvalidTopup)
	}
	if walletID == "" {
		return Notification{}, fmt.Errorf("%w: missing wallet reference", ErrInvalidTopup)
	}
	code, err := money.ParseCode(currency)
	if err != nil {
		return Notification{}, err
	}
	gross, err := money.ParseMajorUnits(amount, code)
	if err != nil {
		return Notification{}, err
	}
	n := Notification{ExternalTransactionID: externalID, RecipientWalletID: walletID, Amount: gross}
	if fee != "" {
		f, err := money.ParseMajorUnits(fee, code)
		if err != nil {
			return Notification{}, err
		}
		n.Fee = &f
	}
	return n, nil
}
