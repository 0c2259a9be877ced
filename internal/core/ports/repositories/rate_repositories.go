package repositories

import (
	"context"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
)

// RateReader defines read operations over rate revisions.
type RateReader interface {
	// FindLatestRate retrieves the latest revision of a rate lineage.
	// Returns apperrors.ErrNotFound when the lineage has no revisions.
	FindLatestRate(ctx context.Context, lineageID string) (*domain.Rate, error)

	// FindLatestRateByCurrency retrieves the latest rate revision tracked for a currency.
	// Returns apperrors.ErrNotFound when the currency has no rate.
	FindLatestRateByCurrency(ctx context.Context, currencyCode string) (*domain.Rate, error)

	// ListLatestRates retrieves the latest revision of every rate lineage, ordered by currency code.
	ListLatestRates(ctx context.Context) ([]domain.Rate, error)

	// ListRateRevisions retrieves every revision of a rate lineage newest first.
	ListRateRevisions(ctx context.Context, lineageID string) ([]domain.Rate, error)
}

// RateWriter defines append operations for rate revisions.
type RateWriter interface {
	// AppendRate persists a new rate revision under the same rules as AccountWriter.AppendAccount.
	// A second lineage for an already tracked currency fails with apperrors.ErrDuplicate.
	AppendRate(ctx context.Context, rate domain.Rate) error

	// AppendRateWithAccounts persists a rate revision and the account revisions re-valued by it
	// as one unit of work: either everything is committed or nothing is. The accounts must cover every
	// latest account priced in the rate lineage, otherwise apperrors.ErrConflict.
	AppendRateWithAccounts(ctx context.Context, rate domain.Rate, accounts []domain.Account) error
}

// RateRepositoryFacade combines all rate-related repository interfaces
type RateRepositoryFacade interface {
	RateReader
	RateWriter
}
