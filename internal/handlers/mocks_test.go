package handlers_test

import (
	"context"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountLedgerService ---
type MockAccountLedgerService struct {
	mock.Mock
}

func (m *MockAccountLedgerService) OpenAccount(ctx context.Context, req dto.OpenAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountLedgerService) RecordAmountUpdate(ctx context.Context, lineageID string, newAmount decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, lineageID, newAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountLedgerService) GetAccountHistory(ctx context.Context, lineageID string, params dto.ListRevisionsParams) (*dto.ListAccountRevisionsResponse, error) {
	args := m.Called(ctx, lineageID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAccountRevisionsResponse), args.Error(1)
}

func (m *MockAccountLedgerService) CascadeRateUpdate(ctx context.Context, accounts []domain.Account, rate domain.Rate) []domain.Account {
	args := m.Called(ctx, accounts, rate)
	return args.Get(0).([]domain.Account)
}

var _ portssvc.AccountLedgerSvcFacade = (*MockAccountLedgerService)(nil)

// --- Mock RateLedgerService ---
type MockRateLedgerService struct {
	mock.Mock
}

func (m *MockRateLedgerService) ListLatestRates(ctx context.Context) ([]domain.Rate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rate), args.Error(1)
}

func (m *MockRateLedgerService) GetRateHistory(ctx context.Context, lineageID string) ([]domain.Rate, error) {
	args := m.Called(ctx, lineageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rate), args.Error(1)
}

func (m *MockRateLedgerService) RegisterRate(ctx context.Context, req dto.RegisterRateRequest) (*domain.Rate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rate), args.Error(1)
}

func (m *MockRateLedgerService) RecordRateUpdate(ctx context.Context, lineageID string, newRate decimal.Decimal) (*domain.RateUpdateResult, error) {
	args := m.Called(ctx, lineageID, newRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateUpdateResult), args.Error(1)
}

var _ portssvc.RateLedgerSvcFacade = (*MockRateLedgerService)(nil)

// --- Mock AggregationService ---
type MockAggregationService struct {
	mock.Mock
}

func (m *MockAggregationService) GetLatestAccountsView(ctx context.Context, userIDs []string) (*domain.LatestAccountsView, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LatestAccountsView), args.Error(1)
}

func (m *MockAggregationService) GetAggregatedAmount(ctx context.Context, userIDs []string) ([]domain.AggregatedAmount, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AggregatedAmount), args.Error(1)
}

var _ portssvc.AggregationSvc = (*MockAggregationService)(nil)
