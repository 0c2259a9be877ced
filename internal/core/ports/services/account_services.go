package services

import (
	"context"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountLedgerSvc defines the write and history operations of the account ledger.
type AccountLedgerSvc interface {
	// OpenAccount records an initial deposit as version 1 of a new account lineage.
	OpenAccount(ctx context.Context, req dto.OpenAccountRequest) (*domain.Account, error)

	// RecordAmountUpdate appends a revision holding newAmount to the account lineage.
	RecordAmountUpdate(ctx context.Context, lineageID string, newAmount decimal.Decimal) (*domain.Account, error)

	// GetAccountHistory pages through the revisions of an account lineage, newest first.
	GetAccountHistory(ctx context.Context, lineageID string, params dto.ListRevisionsParams) (*dto.ListAccountRevisionsResponse, error)
}

// AccountRevaluerSvc re-prices accounts when their rate changes.
type AccountRevaluerSvc interface {
	// CascadeRateUpdate builds the successor revisions of the given latest accounts priced with rate.
	// It does not persist anything.
	CascadeRateUpdate(ctx context.Context, accounts []domain.Account, rate domain.Rate) []domain.Account
}

// AccountLedgerSvcFacade combines all account ledger service interfaces
type AccountLedgerSvcFacade interface {
	AccountLedgerSvc
	AccountRevaluerSvc
}
