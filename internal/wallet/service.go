package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flash-wallet/flash_ledger/internal/fees"
	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

const (
	statusActive = "active"
)

// ErrNotFound is returned when no wallet has the requested id.
var ErrNotFound = errors.New("wallet not found")

// Service exposes wallet operations backed by the journal.
type Service struct {
	repo      Repository
	journal   *ledger.Journal
	imbalance *fees.ImbalanceCalculator
}

// NewService builds a wallet service instance.
func NewService(repo Repository, journal *ledger.Journal, imbalance *fees.ImbalanceCalculator) *Service {
	return &Service{repo: repo, journal: journal, imbalance: imbalance}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID  string
	Currency string
}

// Create registers a wallet. Its journal accounts come into existence with
// the first posting.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, fmt.Errorf("owner id: %w", err)
	}

	currency := money.USDCode
	if input.Currency != "" {
		c, err := money.ParseCode(input.Currency)
		if err != nil {
			return Wallet{}, err
		}
		currency = c
	}

	wallet := Wallet{
		ID:        uuid.New().String(),
		OwnerID:   input.OwnerID,
		Currency:  currency,
		Status:    statusActive,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// Get retrieves wallet metadata.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// Balance returns the journal balance of the wallet's Ibex account.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.journal.Balance(ctx, wallet.Account(), wallet.Currency)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: wallet.ID, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// Transactions lists the journal entries touching the wallet, newest first.
func (s *Service) Transactions(ctx context.Context, id string) ([]ledger.Entry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.journal.TransactionsByWallet(ctx, id)
}

// Imbalance returns the wallet's swap-out imbalance in its own currency.
func (s *Service) Imbalance(ctx context.Context, id string) (money.Money, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return money.Money{}, err
	}
	return s.imbalance.SwapOutImbalance(ctx, fees.Wallet{ID: wallet.ID, Currency: wallet.Currency})
}
