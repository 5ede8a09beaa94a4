package wallet

import (
	"time"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

// Wallet is a custodial wallet whose balance lives in the journal.
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  money.Code
	Status    string
	CreatedAt time.Time
}

// Account is the journal account mirroring the wallet's custodial balance.
func (w Wallet) Account() ledger.AccountPath { return ledger.Ibex(w.ID) }

// Balance encapsulates available funds for a wallet.
type Balance struct {
	WalletID string
	Amount   money.Money
	AsOf     time.Time
}
