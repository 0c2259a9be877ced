package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations over account revisions.
// "Latest" always means the highest version of a lineage.
type AccountReader interface {
	// FindLatestAccount retrieves the latest revision of an account lineage.
	// Returns apperrors.ErrNotFound when the lineage has no revisions.
	FindLatestAccount(ctx context.Context, lineageID string) (*domain.Account, error)

	// FindLatestAccountsByUserIDs retrieves the latest revision of every lineage owned by the given users.
	FindLatestAccountsByUserIDs(ctx context.Context, userIDs []string) ([]domain.Account, error)

	// FindLatestAccountsByRateLineage retrieves the latest account revisions priced in any revision of the rate lineage.
	FindLatestAccountsByRateLineage(ctx context.Context, rateLineageID string) ([]domain.Account, error)

	// ListAccountRevisions retrieves revisions of a lineage newest first.
	// When beforeVersion is set only revisions with a lower version are returned.
	ListAccountRevisions(ctx context.Context, lineageID string, limit int, beforeVersion *int) ([]domain.Account, error)
}

// AccountAggregator defines aggregate reads over account revisions.
type AccountAggregator interface {
	// SumBaseAmountAsOf sums AmountBase over the latest revision per lineage updated strictly before asOf.
	// Returns nil when no revision qualifies.
	SumBaseAmountAsOf(ctx context.Context, userIDs []string, asOf time.Time) (*decimal.Decimal, error)

	// AggregateByCurrencyForLatestAccounts sums the users' latest holdings per currency, ordered by currency code.
	AggregateByCurrencyForLatestAccounts(ctx context.Context, userIDs []string) ([]domain.AggregatedAmount, error)
}

// AccountWriter defines append operations for account revisions.
type AccountWriter interface {
	// AppendAccount persists a new revision. The revision must be version 1 of a new lineage or
	// the direct successor of the lineage's current latest revision, and an attached rate must be
	// the latest revision of its lineage. Either violation fails with apperrors.ErrConflict.
	AppendAccount(ctx context.Context, account domain.Account) error

	// AppendAccounts persists several revisions as one unit of work, applying the AppendAccount
	// rule to each. At most one revision per lineage may be given.
	AppendAccounts(ctx context.Context, accounts []domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountAggregator
	AccountWriter
}
