package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrDuplicateRate is returned by Insert when a record with the same
// (rate_date, base_currency, symbol) already exists.
var ErrDuplicateRate = errors.New("exchange rate already recorded for this date and pair")

// ExchangeRate represents one daily exchange rate record.
// Rate is units of Symbol per one unit of BaseCurrency.
type ExchangeRate struct {
	RateDate     time.Time
	BaseCurrency string
	Symbol       string
	Rate         decimal.Decimal
	Provider     string
	FetchedAt    time.Time
}

// RateRepository defines DB operations for exchange rate records.
type RateRepository interface {
	Insert(ctx context.Context, r ExchangeRate) error
	UpsertBatch(ctx context.Context, rates []ExchangeRate) (int64, error)
	GetRate(ctx context.Context, rateDate time.Time, base, symbol string) (*ExchangeRate, error)
	GetLatest(ctx context.Context, base, symbol string) (*ExchangeRate, error)
	ListBySymbol(ctx context.Context, base, symbol string, from, to time.Time) ([]ExchangeRate, error)
}

// PostgresRateRepository is an implementation of RateRepository using PostgreSQL.
type PostgresRateRepository struct {
	db *sql.DB
}

// NewPostgresRateRepository creates a new PostgresRateRepository.
func NewPostgresRateRepository(db *sql.DB) RateRepository {
	return &PostgresRateRepository{db: db}
}

const uniqueViolationCode = "23505"

// Insert stores a single rate record. A record with the same primary key
// triple is rejected with ErrDuplicateRate; historical rates are immutable
// through this path.
func (r *PostgresRateRepository) Insert(ctx context.Context, rec ExchangeRate) error {
	query := `INSERT INTO exchange_rates (rate_date, base_currency, symbol, rate, provider, fetched_at)
              VALUES ($1::date, $2, $3, $4::numeric, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		rec.RateDate, rec.BaseCurrency, rec.Symbol, rec.Rate, rec.Provider, rec.FetchedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: %s/%s on %s", ErrDuplicateRate,
				rec.BaseCurrency, rec.Symbol, rec.RateDate.Format("2006-01-02"))
		}
		return fmt.Errorf("insert exchange rate: %w", err)
	}
	return nil
}

// UpsertBatch stores a batch of rate records in a single statement.
// Conflicting keys overwrite the stored rate, provider, and fetched_at, so
// re-ingesting a window is idempotent. Returns the number of rows written.
func (r *PostgresRateRepository) UpsertBatch(ctx context.Context, rates []ExchangeRate) (int64, error) {
	if len(rates) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO exchange_rates (rate_date, base_currency, symbol, rate, provider, fetched_at) VALUES `)

	args := make([]any, 0, len(rates)*6)
	for i, rec := range rates {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 6
		fmt.Fprintf(&sb, "($%d::date, $%d, $%d, $%d::numeric, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6)
		args = append(args, rec.RateDate, rec.BaseCurrency, rec.Symbol, rec.Rate, rec.Provider, rec.FetchedAt)
	}

	sb.WriteString(` ON CONFLICT (rate_date, base_currency, symbol)
              DO UPDATE SET rate = EXCLUDED.rate,
                            provider = EXCLUDED.provider,
                            fetched_at = EXCLUDED.fetched_at`)

	result, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("upsert exchange rate batch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// GetRate retrieves the record for an exact (date, base, symbol) key.
func (r *PostgresRateRepository) GetRate(ctx context.Context, rateDate time.Time, base, symbol string) (*ExchangeRate, error) {
	query := `SELECT rate_date, base_currency, symbol, rate, provider, fetched_at
              FROM exchange_rates
              WHERE rate_date=$1::date AND base_currency=$2 AND symbol=$3`

	row := r.db.QueryRowContext(ctx, query, rateDate, base, symbol)
	return scanRate(row)
}

// GetLatest finds the most recent stored rate for the given pair.
func (r *PostgresRateRepository) GetLatest(ctx context.Context, base, symbol string) (*ExchangeRate, error) {
	query := `SELECT rate_date, base_currency, symbol, rate, provider, fetched_at
              FROM exchange_rates
              WHERE base_currency=$1 AND symbol=$2
              ORDER BY rate_date DESC
              LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, base, symbol)
	return scanRate(row)
}

// ListBySymbol returns all records for the pair within [from, to] inclusive,
// ordered by rate_date ascending.
func (r *PostgresRateRepository) ListBySymbol(ctx context.Context, base, symbol string, from, to time.Time) ([]ExchangeRate, error) {
	query := `SELECT rate_date, base_currency, symbol, rate, provider, fetched_at
              FROM exchange_rates
              WHERE base_currency=$1 AND symbol=$2 AND rate_date BETWEEN $3::date AND $4::date
              ORDER BY rate_date`

	rows, err := r.db.QueryContext(ctx, query, base, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("list exchange rates: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var out []ExchangeRate
	for rows.Next() {
		var rec ExchangeRate
		if err := rows.Scan(&rec.RateDate, &rec.BaseCurrency, &rec.Symbol, &rec.Rate, &rec.Provider, &rec.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanRate maps a single row into an ExchangeRate, returning (nil, nil) for sql.ErrNoRows.
func scanRate(row *sql.Row) (*ExchangeRate, error) {
	var rec ExchangeRate
	err := row.Scan(&rec.RateDate, &rec.BaseCurrency, &rec.Symbol, &rec.Rate, &rec.Provider, &rec.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
