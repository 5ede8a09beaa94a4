package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

// PostgresStore persists journal entries in PostgreSQL. Each entry is written
// in a single transaction so its lines are never partially visible.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed journal store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO journal_entries (id, memo, created_at) VALUES ($1, $2, $3)`,
		entry.ID, entry.Memo, entry.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEntry
		}
		return err
	}

	const insertLine = `
        INSERT INTO journal_lines
            (entry_id, line_no, account, wallet_id, direction, amount, currency,
             external_id, provider, correlation_id, rail, metadata)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6::numeric, $7,
                NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12)`
	for i, l := range entry.Lines {
		meta, err := json.Marshal(l.Meta)
		if err != nil {
			return fmt.Errorf("encode line %d metadata: %w", i, err)
		}
		walletID, _ := l.Account.WalletID()
		if _, err := tx.Exec(ctx, insertLine,
			entry.ID, i, l.Account.String(), walletID, string(l.Direction),
			l.Amount.MinorUnits().String(), string(l.Amount.Currency()),
			l.Meta.ExternalTransactionID, l.Meta.Provider, l.Meta.CorrelationID, string(l.Meta.Rail),
			meta); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Entry, error) {
	entries, err := s.loadEntries(ctx, `SELECT id, memo, created_at FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

func (s *PostgresStore) ListByWallet(ctx context.Context, walletID string) ([]Entry, error) {
	const query = `
        SELECT e.id, e.memo, e.created_at
        FROM journal_entries e
        WHERE EXISTS (SELECT 1 FROM journal_lines l WHERE l.entry_id = e.id AND l.wallet_id = $1)
        ORDER BY e.id DESC`
	return s.loadEntries(ctx, query, walletID)
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, externalID, provider string) (Entry, error) {
	const query = `
        SELECT e.id, e.memo, e.created_at
        FROM journal_entries e
        WHERE EXISTS (SELECT 1 FROM journal_lines l
                      WHERE l.entry_id = e.id AND l.external_id = $1 AND l.provider = $2)
        ORDER BY e.id DESC
        LIMIT 1`
	return s.first(ctx, query, externalID, provider)
}

func (s *PostgresStore) FindByCorrelationID(ctx context.Context, correlationID string) (Entry, error) {
	const query = `
        SELECT e.id, e.memo, e.created_at
        FROM journal_entries e
        WHERE EXISTS (SELECT 1 FROM journal_lines l WHERE l.entry_id = e.id AND l.correlation_id = $1)
        ORDER BY e.id DESC
        LIMIT 1`
	return s.first(ctx, query, correlationID)
}

func (s *PostgresStore) Balance(ctx context.Context, path AccountPath, currency money.Code) (money.Money, error) {
	const query = `
        SELECT COALESCE(SUM(CASE direction WHEN 'credit' THEN amount ELSE -amount END), 0)::text
        FROM journal_lines
        WHERE currency = $1 AND (account = $2 OR starts_with(account, $2 || ':'))`
	var raw string
	if err := s.db.QueryRow(ctx, query, string(currency), path.String()).Scan(&raw); err != nil {
		return money.Money{}, err
	}
	return money.ParseMoney(raw, currency)
}

func (s *PostgresStore) first(ctx context.Context, query string, args ...any) (Entry, error) {
	entries, err := s.loadEntries(ctx, query, args...)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// loadEntries runs an entry header query and attaches the lines of every row
// it returns, preserving the header order.
func (s *PostgresStore) loadEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	index := map[string]int{}
	for rows.Next() {
		var (
			e         Entry
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.Memo, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		e.CreatedAt = createdAt.UTC()
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	entryIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
	}

	lineRows, err := s.db.Query(ctx, `
        SELECT entry_id, account, direction, amount::text, currency, metadata
        FROM journal_lines
        WHERE entry_id = ANY($1)
        ORDER BY entry_id, line_no`, entryIDs)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			entryID, account, direction, amount, currency string
			meta                                          []byte
		)
		if err := lineRows.Scan(&entryID, &account, &direction, &amount, &currency, &meta); err != nil {
			return nil, err
		}
		line, err := decodeLine(account, direction, amount, currency, meta)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entryID, err)
		}
		i := index[entryID]
		entries[i].Lines = append(entries[i].Lines, line)
	}
	return entries, lineRows.Err()
}

func decodeLine(account, direction, amount, currency string, meta []byte) (Line, error) {
	minor, err := decimal.NewFromString(amount)
	if err != nil {
		return Line{}, err
	}
	m, err := money.NewMoney(minor, money.Code(currency))
	if err != nil {
		return Line{}, err
	}
	line := Line{
		Account:   ParseAccountPath(account),
		Amount:    m,
		Direction: Direction(direction),
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &line.Meta); err != nil {
			return Line{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return line, nil
}
