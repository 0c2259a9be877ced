package services

import (
	"context"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
)

// AggregationSvc builds read views over a set of users' latest accounts.
type AggregationSvc interface {
	// GetLatestAccountsView returns the users' latest accounts with totals and week/month changes.
	GetLatestAccountsView(ctx context.Context, userIDs []string) (*domain.LatestAccountsView, error)

	// GetAggregatedAmount returns one row per currency held by the users.
	GetAggregatedAmount(ctx context.Context, userIDs []string) ([]domain.AggregatedAmount, error)
}
