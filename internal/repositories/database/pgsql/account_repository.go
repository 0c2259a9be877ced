package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	"github.com/SscSPs/currency_baskets/internal/models"
	"github.com/SscSPs/currency_baskets/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// accountSelect reads account rows together with the rate revision they reference.
// Callers provide the FROM source aliased as "a".
const accountSelect = `
	SELECT a.account_id, a.lineage_id, a.user_id, a.bank, a.currency_code,
	       a.amount, a.amount_change, a.rate_id, a.amount_base, a.amount_base_change,
	       a.previous_id, a.version, a.updated,
	       r.lineage_id, r.currency_code, r.rate, r.updated, r.version
`

// latestAccountsOf selects the latest revision of every lineage matching the inner filter.
const latestAccountsOf = `
	(SELECT DISTINCT ON (lineage_id) *
	   FROM accounts
	  WHERE %s
	  ORDER BY lineage_id, version DESC) a
	LEFT JOIN rates r ON r.rate_id = a.rate_id
`

const insertAccount = `
	INSERT INTO accounts (account_id, lineage_id, user_id, bank, currency_code, amount, amount_change,
	                      rate_id, amount_base, amount_base_change, previous_id, version, updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account revisions.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (domain.Account, error) {
	var m models.Account
	var joined models.JoinedRate
	err := row.Scan(
		&m.AccountID, &m.LineageID, &m.UserID, &m.Bank, &m.CurrencyCode,
		&m.Amount, &m.AmountChange, &m.RateID, &m.AmountBase, &m.AmountBaseChange,
		&m.PreviousID, &m.Version, &m.Updated,
		&joined.LineageID, &joined.CurrencyCode, &joined.Rate, &joined.Updated, &joined.Version,
	)
	if err != nil {
		return domain.Account{}, err
	}
	m.AttachedRate = joined.Resolve(m.RateID)
	return mapping.ToDomainAccount(m), nil
}

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// FindLatestAccount retrieves the highest version of an account lineage.
func (r *PgxAccountRepository) FindLatestAccount(ctx context.Context, lineageID string) (*domain.Account, error) {
	query := accountSelect + `
		FROM accounts a
		LEFT JOIN rates r ON r.rate_id = a.rate_id
		WHERE a.lineage_id = $1
		ORDER BY a.version DESC
		LIMIT 1;
	`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, lineageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest account %s: %w", lineageID, err)
	}
	return &account, nil
}

// FindLatestAccountsByUserIDs retrieves the latest revision of every lineage owned by the users.
func (r *PgxAccountRepository) FindLatestAccountsByUserIDs(ctx context.Context, userIDs []string) ([]domain.Account, error) {
	if len(userIDs) == 0 {
		return []domain.Account{}, nil
	}
	query := accountSelect + " FROM " + fmt.Sprintf(latestAccountsOf, "user_id = ANY($1)") + `
		ORDER BY a.currency_code, a.bank, a.lineage_id;
	`
	accounts, err := r.queryAccounts(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest accounts by user IDs: %w", err)
	}
	return accounts, nil
}

// FindLatestAccountsByRateLineage retrieves latest account revisions priced in any revision of the rate lineage.
func (r *PgxAccountRepository) FindLatestAccountsByRateLineage(ctx context.Context, rateLineageID string) ([]domain.Account, error) {
	// Narrow to lineages that ever referenced the rate lineage, then keep those whose
	// latest revision still does.
	inner := `lineage_id IN (
		SELECT ar.lineage_id FROM accounts ar
		JOIN rates rr ON rr.rate_id = ar.rate_id
		WHERE rr.lineage_id = $1)`
	query := accountSelect + " FROM " + fmt.Sprintf(latestAccountsOf, inner) + `
		WHERE r.lineage_id = $1
		ORDER BY a.currency_code, a.bank, a.lineage_id;
	`
	accounts, err := r.queryAccounts(ctx, query, rateLineageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest accounts by rate lineage %s: %w", rateLineageID, err)
	}
	return accounts, nil
}

// ListAccountRevisions retrieves revisions of a lineage newest first, optionally below a version.
func (r *PgxAccountRepository) ListAccountRevisions(ctx context.Context, lineageID string, limit int, beforeVersion *int) ([]domain.Account, error) {
	query := accountSelect + `
		FROM accounts a
		LEFT JOIN rates r ON r.rate_id = a.rate_id
		WHERE a.lineage_id = $1
		  AND ($2::int IS NULL OR a.version < $2)
		ORDER BY a.version DESC
		LIMIT $3;
	`
	accounts, err := r.queryAccounts(ctx, query, lineageID, beforeVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions of account %s: %w", lineageID, err)
	}
	return accounts, nil
}

// SumBaseAmountAsOf sums AmountBase over the latest revision per lineage updated strictly before asOf.
func (r *PgxAccountRepository) SumBaseAmountAsOf(ctx context.Context, userIDs []string, asOf time.Time) (*decimal.Decimal, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT SUM(s.amount_base)
		FROM (SELECT DISTINCT ON (lineage_id) lineage_id, version, amount_base
		        FROM accounts
		       WHERE user_id = ANY($1) AND updated < $2
		       ORDER BY lineage_id, version DESC) s;
	`
	var sum decimal.NullDecimal
	if err := r.Pool.QueryRow(ctx, query, userIDs, asOf).Scan(&sum); err != nil {
		return nil, fmt.Errorf("failed to sum base amount as of %s: %w", asOf.Format(time.RFC3339), err)
	}
	if !sum.Valid {
		return nil, nil
	}
	return &sum.Decimal, nil
}

// AggregateByCurrencyForLatestAccounts sums the users' latest holdings per currency.
func (r *PgxAccountRepository) AggregateByCurrencyForLatestAccounts(ctx context.Context, userIDs []string) ([]domain.AggregatedAmount, error) {
	if len(userIDs) == 0 {
		return []domain.AggregatedAmount{}, nil
	}
	query := `
		SELECT a.currency_code, SUM(a.amount), SUM(a.amount_base)
		FROM (SELECT DISTINCT ON (lineage_id) currency_code, amount, amount_base
		        FROM accounts
		       WHERE user_id = ANY($1)
		       ORDER BY lineage_id, version DESC) a
		GROUP BY a.currency_code
		ORDER BY a.currency_code;
	`
	rows, err := r.Pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate latest accounts by currency: %w", err)
	}
	defer rows.Close()

	amounts := make([]domain.AggregatedAmount, 0)
	for rows.Next() {
		var agg domain.AggregatedAmount
		if err := rows.Scan(&agg.CurrencyCode, &agg.Amount, &agg.AmountBase); err != nil {
			return nil, fmt.Errorf("failed to scan aggregated amount row: %w", err)
		}
		amounts = append(amounts, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregated amount rows: %w", err)
	}
	return amounts, nil
}

// AppendAccount persists a new account revision after checking it extends the lineage's latest version.
func (r *PgxAccountRepository) AppendAccount(ctx context.Context, account domain.Account) error {
	return r.AppendAccounts(ctx, []domain.Account{account})
}

// AppendAccounts persists several account revisions in one transaction.
func (r *PgxAccountRepository) AppendAccounts(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		return appendAccountsInTx(ctx, tx, accounts, nil)
	})
}

// appendAccountsInTx locks the latest revision of every touched lineage, checks each new revision
// directly succeeds it and inserts the batch. The unique (lineage_id, version) constraint backs the
// check up against writers that created a lineage concurrently. pending is the rate revision written
// in the same transaction, if any.
func appendAccountsInTx(ctx context.Context, tx pgx.Tx, accounts []domain.Account, pending *domain.Rate) error {
	if len(accounts) == 0 {
		return nil
	}
	if err := checkRatesCurrentInTx(ctx, tx, accounts, pending); err != nil {
		return err
	}

	lineageIDs := make([]string, 0, len(accounts))
	seen := make(map[string]struct{}, len(accounts))
	for _, account := range accounts {
		if _, dup := seen[account.LineageID]; dup {
			return fmt.Errorf("%w: lineage %s appears twice in one batch", apperrors.ErrConflict, account.LineageID)
		}
		seen[account.LineageID] = struct{}{}
		lineageIDs = append(lineageIDs, account.LineageID)
	}

	lockQuery := `
		SELECT a.lineage_id, a.version
		FROM accounts a
		WHERE a.lineage_id = ANY($1)
		  AND NOT EXISTS (SELECT 1 FROM accounts n WHERE n.lineage_id = a.lineage_id AND n.version > a.version)
		FOR UPDATE OF a;
	`
	rows, err := tx.Query(ctx, lockQuery, lineageIDs)
	if err != nil {
		return fmt.Errorf("failed to lock latest account revisions: %w", err)
	}
	latestVersions := make(map[string]int, len(lineageIDs))
	for rows.Next() {
		var lineageID string
		var version int
		if err := rows.Scan(&lineageID, &version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan locked account revision: %w", err)
		}
		latestVersions[lineageID] = version
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating locked account revisions: %w", err)
	}

	batch := &pgx.Batch{}
	for _, account := range accounts {
		if latest := latestVersions[account.LineageID]; account.Version != latest+1 {
			return fmt.Errorf("%w: account lineage %s is at version %d, got %d",
				apperrors.ErrConflict, account.LineageID, latest, account.Version)
		}
		m := mapping.ToModelAccount(account)
		batch.Queue(insertAccount,
			m.AccountID, m.LineageID, m.UserID, m.Bank, m.CurrencyCode, m.Amount, m.AmountChange,
			m.RateID, m.AmountBase, m.AmountBaseChange, m.PreviousID, m.Version, m.Updated,
		)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = translateAppendError(err, "account revision "+accounts[i].ID)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close account insert batch: %w", err)
	}
	return batchErr
}

// checkRatesCurrentInTx share-locks the rate revisions the batch is priced at and rejects any that
// has a successor. The successor check runs as its own statement so it sees revisions committed
// while the lock was awaited.
func checkRatesCurrentInTx(ctx context.Context, tx pgx.Tx, accounts []domain.Account, pending *domain.Rate) error {
	rateIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, account := range accounts {
		if account.Rate == nil {
			continue
		}
		if pending != nil && account.Rate.LineageID == pending.LineageID {
			if account.Rate.ID != pending.ID {
				return fmt.Errorf("%w: account %s is priced at rate revision %s, which is no longer current",
					apperrors.ErrConflict, account.ID, account.Rate.ID)
			}
			continue
		}
		if _, dup := seen[account.Rate.ID]; dup {
			continue
		}
		seen[account.Rate.ID] = struct{}{}
		rateIDs = append(rateIDs, account.Rate.ID)
	}
	if len(rateIDs) == 0 {
		return nil
	}

	lockQuery := `SELECT rate_id FROM rates WHERE rate_id = ANY($1) FOR SHARE;`
	rows, err := tx.Query(ctx, lockQuery, rateIDs)
	if err != nil {
		return fmt.Errorf("failed to lock attached rate revisions: %w", err)
	}
	locked := 0
	for rows.Next() {
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating locked rate revisions: %w", err)
	}
	if locked != len(rateIDs) {
		return fmt.Errorf("%w: an attached rate revision does not exist", apperrors.ErrConflict)
	}

	staleQuery := `
		SELECT o.rate_id
		FROM rates o
		JOIN rates n ON n.lineage_id = o.lineage_id AND n.version > o.version
		WHERE o.rate_id = ANY($1)
		LIMIT 1;
	`
	var stale string
	err = tx.QueryRow(ctx, staleQuery, rateIDs).Scan(&stale)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check attached rate revisions: %w", err)
	default:
		return fmt.Errorf("%w: rate revision %s is no longer current", apperrors.ErrConflict, stale)
	}
}

// checkCascadeCompleteInTx rejects a rate revision whose batch misses an account currently priced in
// the lineage. Callers must already hold the lock on the lineage's latest rate row.
func checkCascadeCompleteInTx(ctx context.Context, tx pgx.Tx, rateLineageID string, accounts []domain.Account) error {
	lineageIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		lineageIDs = append(lineageIDs, account.LineageID)
	}

	query := `
		SELECT a.lineage_id
		FROM (SELECT DISTINCT ON (lineage_id) lineage_id, rate_id
		        FROM accounts
		       WHERE lineage_id IN (
		             SELECT ar.lineage_id FROM accounts ar
		             JOIN rates rr ON rr.rate_id = ar.rate_id
		             WHERE rr.lineage_id = $1)
		       ORDER BY lineage_id, version DESC) a
		JOIN rates r ON r.rate_id = a.rate_id
		WHERE r.lineage_id = $1
		  AND NOT (a.lineage_id = ANY($2))
		LIMIT 1;
	`
	var missing string
	err := tx.QueryRow(ctx, query, rateLineageID, lineageIDs).Scan(&missing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check cascade completeness: %w", err)
	default:
		return fmt.Errorf("%w: account lineage %s priced in rate lineage %s is missing from the cascade",
			apperrors.ErrConflict, missing, rateLineageID)
	}
}
