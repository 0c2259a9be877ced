package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	"github.com/SscSPs/currency_baskets/internal/models"
	"github.com/SscSPs/currency_baskets/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rateColumns = `rate_id, lineage_id, currency_code, rate, updated, version`

type PgxRateRepository struct {
	BaseRepository
}

// newPgxRateRepository creates a new repository for rate revisions.
func newPgxRateRepository(pool *pgxpool.Pool) *PgxRateRepository {
	return &PgxRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RateRepositoryFacade = (*PgxRateRepository)(nil)

func scanRate(row pgx.Row) (domain.Rate, error) {
	var m models.Rate
	if err := row.Scan(&m.RateID, &m.LineageID, &m.CurrencyCode, &m.Rate, &m.Updated, &m.Version); err != nil {
		return domain.Rate{}, err
	}
	return mapping.ToDomainRate(m), nil
}

func (r *PgxRateRepository) findOne(ctx context.Context, query string, arg any) (*domain.Rate, error) {
	rate, err := scanRate(r.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &rate, nil
}

func (r *PgxRateRepository) queryRates(ctx context.Context, query string, args ...any) ([]domain.Rate, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make([]domain.Rate, 0)
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate row: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate rows: %w", err)
	}
	return rates, nil
}

// FindLatestRate retrieves the highest version of a rate lineage.
func (r *PgxRateRepository) FindLatestRate(ctx context.Context, lineageID string) (*domain.Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM rates WHERE lineage_id = $1 ORDER BY version DESC LIMIT 1;`
	rate, err := r.findOne(ctx, query, lineageID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find latest rate %s: %w", lineageID, err)
	}
	return rate, err
}

// FindLatestRateByCurrency retrieves the latest revision of the currency's rate lineage.
func (r *PgxRateRepository) FindLatestRateByCurrency(ctx context.Context, currencyCode string) (*domain.Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM rates WHERE currency_code = $1 ORDER BY version DESC LIMIT 1;`
	rate, err := r.findOne(ctx, query, currencyCode)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find latest rate for %s: %w", currencyCode, err)
	}
	return rate, err
}

// ListLatestRates retrieves the latest revision of every rate lineage.
func (r *PgxRateRepository) ListLatestRates(ctx context.Context) ([]domain.Rate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM (SELECT DISTINCT ON (lineage_id) * FROM rates ORDER BY lineage_id, version DESC) latest
		ORDER BY currency_code;
	`
	rates, err := r.queryRates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest rates: %w", err)
	}
	return rates, nil
}

// ListRateRevisions retrieves every revision of a rate lineage, newest first.
func (r *PgxRateRepository) ListRateRevisions(ctx context.Context, lineageID string) ([]domain.Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM rates WHERE lineage_id = $1 ORDER BY version DESC;`
	rates, err := r.queryRates(ctx, query, lineageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions of rate %s: %w", lineageID, err)
	}
	return rates, nil
}

// AppendRate persists a rate revision on its own.
func (r *PgxRateRepository) AppendRate(ctx context.Context, rate domain.Rate) error {
	return r.AppendRateWithAccounts(ctx, rate, nil)
}

// AppendRateWithAccounts persists a rate revision and the account revisions it re-valued in one transaction.
// The batch must hold a revision for every account currently priced in the rate lineage.
func (r *PgxRateRepository) AppendRateWithAccounts(ctx context.Context, rate domain.Rate, accounts []domain.Account) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := appendRateInTx(ctx, tx, rate); err != nil {
			return err
		}
		if rate.Version > 1 {
			if err := checkCascadeCompleteInTx(ctx, tx, rate.LineageID, accounts); err != nil {
				return err
			}
		}
		return appendAccountsInTx(ctx, tx, accounts, &rate)
	})
}

func appendRateInTx(ctx context.Context, tx pgx.Tx, rate domain.Rate) error {
	lockQuery := `
		SELECT version FROM rates
		WHERE lineage_id = $1
		ORDER BY version DESC
		LIMIT 1
		FOR UPDATE;
	`
	latest := 0
	if err := tx.QueryRow(ctx, lockQuery, rate.LineageID).Scan(&latest); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to lock latest rate revision: %w", err)
	}
	if rate.Version != latest+1 {
		return fmt.Errorf("%w: rate lineage %s is at version %d, got %d",
			apperrors.ErrConflict, rate.LineageID, latest, rate.Version)
	}

	m := mapping.ToModelRate(rate)
	insert := `INSERT INTO rates (` + rateColumns + `) VALUES ($1, $2, $3, $4, $5, $6);`
	if _, err := tx.Exec(ctx, insert, m.RateID, m.LineageID, m.CurrencyCode, m.Rate, m.Updated, m.Version); err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "rates_currency_first_revision_key" {
			return fmt.Errorf("%w: currency %s already has a rate", apperrors.ErrDuplicate, rate.CurrencyCode)
		}
		return translateAppendError(err, "rate revision "+rate.ID)
	}
	return nil
}
