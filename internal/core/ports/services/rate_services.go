package services

import (
	"context"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/shopspring/decimal"
)

// RateReaderSvc defines read operations for rate data
type RateReaderSvc interface {
	// ListLatestRates retrieves the current rate of every tracked currency.
	ListLatestRates(ctx context.Context) ([]domain.Rate, error)

	// GetRateHistory retrieves every revision of a rate lineage, newest first.
	GetRateHistory(ctx context.Context, lineageID string) ([]domain.Rate, error)
}

// RateWriterSvc defines write operations for rate data
type RateWriterSvc interface {
	// RegisterRate starts tracking a currency with its first rate revision.
	RegisterRate(ctx context.Context, req dto.RegisterRateRequest) (*domain.Rate, error)

	// RecordRateUpdate appends a rate revision and re-values every account priced in the lineage.
	RecordRateUpdate(ctx context.Context, lineageID string, newRate decimal.Decimal) (*domain.RateUpdateResult, error)
}

// RateLedgerSvcFacade combines all rate ledger service interfaces
type RateLedgerSvcFacade interface {
	RateReaderSvc
	RateWriterSvc
}
