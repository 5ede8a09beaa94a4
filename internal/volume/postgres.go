package volume

import (
	"context"
	"database/sql"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

// PostgresSource aggregates rail volume in SQL over the journal tables.
type PostgresSource struct {
	db   *sql.DB
	rail ledger.Rail
}

func NewPostgresSource(db *sql.DB, rail ledger.Rail) *PostgresSource {
	return &PostgresSource{db: db, rail: rail}
}

const volumeQuery = `
	select
		coalesce(sum(case when l.direction = 'credit' then l.amount else 0 end), 0)::text,
		coalesce(sum(case when l.direction = 'debit' then l.amount else 0 end), 0)::text
	from journal_lines l
	join journal_entries e on e.id = l.entry_id
	where l.account = $1 and l.currency = $2 and l.rail = $3 and e.created_at >= $4`

func (s *PostgresSource) VolumeSince(ctx context.Context, q Query) (Volume, error) {
	var incoming, outgoing string
	err := s.db.QueryRowContext(ctx, volumeQuery,
		ledger.Ibex(q.WalletID).String(), string(q.Currency), string(s.rail), q.Since,
	).Scan(&incoming, &outgoing)
	if err != nil {
		return Volume{}, &ledger.ServiceError{Op: "volume since", Err: err, Retryable: true}
	}

	in, err := money.ParseMoney(incoming, q.Currency)
	if err != nil {
		return Volume{}, err
	}
	out, err := money.ParseMoney(outgoing, q.Currency)
	if err != nil {
		return Volume{}, err
	}
	return Volume{Incoming: in, Outgoing: out}, nil
}
