package services

import (
	"github.com/SscSPs/currency_baskets/internal/core/ports/publishers"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
)

// NewServiceContainer creates a service container with properly initialized dependencies.
// The same options (logger, clock) are shared by every service.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, publisher publishers.RateEventPublisher, options ...ServiceOption) *portssvc.ServiceContainer {
	accountLedger := NewAccountLedgerService(repos.AccountRepo, repos.RateRepo, options...)

	return &portssvc.ServiceContainer{
		AccountLedger: accountLedger,
		RateLedger:    NewRateLedgerService(repos.RateRepo, repos.AccountRepo, accountLedger, publisher, options...),
		Aggregation:   NewAggregationService(repos.AccountRepo, options...),
	}
}
