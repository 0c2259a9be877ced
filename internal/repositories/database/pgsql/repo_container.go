package pgsql

import (
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(dbPool),
		RateRepo:    newPgxRateRepository(dbPool),
	}
}
