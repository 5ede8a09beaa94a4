// Package fees derives the inputs of the withdrawal fee from wallet history.
package fees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flash-wallet/flash_ledger/internal/money"
	"github.com/flash-wallet/flash_ledger/internal/volume"
)

// Method selects how withdrawal fees are computed.
type Method string

const (
	MethodFlat                    Method = "flat"
	MethodProportionalOnImbalance Method = "proportional_on_imbalance"
)

var ErrUnknownMethod = errors.New("unknown withdraw fee method")

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodFlat, MethodProportionalOnImbalance:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Config mirrors the withdraw fee settings.
type Config struct {
	Method       Method
	DaysLookback int
}

// Wallet identifies the wallet whose imbalance is computed and the currency
// it is denominated in.
type Wallet struct {
	ID       string
	Currency money.Code
}

// ImbalanceCalculator compares a wallet's net inbound flow over lightning
// with its net inbound flow on-chain.
type ImbalanceCalculator struct {
	cfg       Config
	lightning volume.Source
	onChain   volume.Source
	now       func() time.Time
}

func NewImbalanceCalculator(cfg Config, lightning, onChain volume.Source) *ImbalanceCalculator {
	return &ImbalanceCalculator{
		cfg:       cfg,
		lightning: lightning,
		onChain:   onChain,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SwapOutImbalance returns lightning net inbound minus on-chain net inbound
// over the lookback window, in the wallet's currency. The flat method has no
// dynamic component and always yields zero. Volume errors are returned as is.
func (c *ImbalanceCalculator) SwapOutImbalance(ctx context.Context, w Wallet) (money.Money, error) {
	if c.cfg.Method == MethodFlat {
		return money.ZeroOf(w.Currency), nil
	}

	q := volume.Query{
		WalletID: w.ID,
		Currency: w.Currency,
		Since:    c.now().AddDate(0, 0, -c.cfg.DaysLookback),
	}

	lnNet, err := netInbound(ctx, c.lightning, q)
	if err != nil {
		return money.Money{}, err
	}
	onChainNet, err := netInbound(ctx, c.onChain, q)
	if err != nil {
		return money.Money{}, err
	}
	return lnNet.Subtract(onChainNet)
}

func netInbound(ctx context.Context, src volume.Source, q volume.Query) (money.Money, error) {
	v, err := src.VolumeSince(ctx, q)
	if err != nil {
		return money.Money{}, err
	}
	return v.Net()
}
