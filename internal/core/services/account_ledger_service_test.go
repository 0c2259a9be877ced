package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/core/services"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/SscSPs/currency_baskets/internal/platform/clock"
	"github.com/SscSPs/currency_baskets/internal/repositories/memory"
	"github.com/stretchr/testify/suite"
)

type AccountLedgerServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	clock   *clock.Fixed
	service portssvc.AccountLedgerSvcFacade
}

func (suite *AccountLedgerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.clock = clock.NewFixed(t0)
	suite.service = services.NewAccountLedgerService(suite.store, suite.store, services.WithClock(suite.clock))
}

func (suite *AccountLedgerServiceTestSuite) registerUSD(rate string) domain.Rate {
	r := domain.NewRate("rate-usd-1", "rl-usd", "USD", dec(rate), t0)
	suite.Require().NoError(suite.store.AppendRate(suite.ctx, r))
	return r
}

func (suite *AccountLedgerServiceTestSuite) TestOpenAccount_AttachesLatestRate() {
	suite.registerUSD("1.5")

	acc, err := suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "usd", Amount: decPtr("100"),
	})

	suite.Require().NoError(err)
	suite.Equal("USD", acc.CurrencyCode)
	suite.Equal(1, acc.Version)
	suite.Nil(acc.PreviousID)
	suite.Equal("rate-usd-1", acc.RateID())
	suite.True(acc.AmountBase.Equal(dec("150")))
	suite.True(acc.AmountBaseChange.Equal(dec("150")))
	suite.Equal(t0, acc.Updated)

	stored, err := suite.store.FindLatestAccount(suite.ctx, acc.LineageID)
	suite.Require().NoError(err)
	suite.Equal(acc.ID, stored.ID)
}

func (suite *AccountLedgerServiceTestSuite) TestOpenAccount_RateUpdatedBeforeAppend() {
	usd := suite.registerUSD("1.5")
	rates := services.NewRateLedgerService(suite.store, suite.store, suite.service, nil, services.WithClock(suite.clock))

	// The rate moves on after the new account read it but before the account is stored.
	racing := &racingRateReader{Store: suite.store, race: func() {
		_, err := rates.RecordRateUpdate(suite.ctx, usd.LineageID, dec("2.0"))
		suite.Require().NoError(err)
	}}
	svc := services.NewAccountLedgerService(suite.store, racing, services.WithClock(suite.clock))

	acc, err := svc.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "USD", Amount: decPtr("100"),
	})

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrConflict)
	stored, err := suite.store.FindLatestAccountsByUserIDs(suite.ctx, []string{"user-1"})
	suite.Require().NoError(err)
	suite.Empty(stored, "an account priced at a superseded rate must not be stored")

	// A retry picks up the new rate.
	acc, err = suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "USD", Amount: decPtr("100"),
	})
	suite.Require().NoError(err)
	suite.True(acc.AmountBase.Equal(dec("200")))
}

func (suite *AccountLedgerServiceTestSuite) TestOpenAccount_UntrackedCurrency() {
	acc, err := suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "CHF", Amount: decPtr("-3"),
	})

	suite.Require().NoError(err)
	suite.Nil(acc.Rate)
	suite.True(acc.AmountBase.Equal(dec("-3")))
}

func (suite *AccountLedgerServiceTestSuite) TestOpenAccount_Validation() {
	cases := []dto.OpenAccountRequest{
		{UserID: "", Bank: "Bank", CurrencyCode: "USD", Amount: decPtr("1")},
		{UserID: "user-1", Bank: "Bank", CurrencyCode: "US", Amount: decPtr("1")},
		{UserID: "user-1", Bank: "Bank", CurrencyCode: "USD"},
	}
	for _, req := range cases {
		acc, err := suite.service.OpenAccount(suite.ctx, req)
		suite.Nil(acc)
		suite.ErrorIs(err, apperrors.ErrValidation)
	}
}

// 100 at 1.5 updated to 120.
func (suite *AccountLedgerServiceTestSuite) TestRecordAmountUpdate_KeepsRateAndTracksChanges() {
	suite.registerUSD("1.5")
	opened, err := suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "USD", Amount: decPtr("100"),
	})
	suite.Require().NoError(err)

	suite.clock.Advance(time.Hour)
	updated, err := suite.service.RecordAmountUpdate(suite.ctx, opened.LineageID, dec("120"))

	suite.Require().NoError(err)
	suite.True(updated.AmountChange.Equal(dec("20")))
	suite.True(updated.AmountBase.Equal(dec("180")))
	suite.True(updated.AmountBaseChange.Equal(dec("30")))
	suite.Equal(2, updated.Version)
	suite.Equal(opened.ID, *updated.PreviousID)
	suite.Equal(t0.Add(time.Hour), updated.Updated)

	// The first revision is retained and no longer latest.
	history, err := suite.service.GetAccountHistory(suite.ctx, opened.LineageID, dto.ListRevisionsParams{})
	suite.Require().NoError(err)
	suite.Require().Len(history.Revisions, 2)
	suite.Equal(updated.ID, history.Revisions[0].AccountID)
	suite.True(history.Revisions[1].Amount.Equal(dec("100")))
	suite.Nil(history.NextToken)
}

func (suite *AccountLedgerServiceTestSuite) TestRecordAmountUpdate_UnknownLineage() {
	acc, err := suite.service.RecordAmountUpdate(suite.ctx, "nope", dec("1"))

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrLineageNotFound)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountLedgerServiceTestSuite) TestRecordAmountUpdate_VersionsHaveNoGaps() {
	opened, err := suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "EUR", Amount: decPtr("0"),
	})
	suite.Require().NoError(err)

	for _, amount := range []string{"5", "-5", "12.34", "12.34"} {
		_, err := suite.service.RecordAmountUpdate(suite.ctx, opened.LineageID, dec(amount))
		suite.Require().NoError(err)
	}

	history, err := suite.service.GetAccountHistory(suite.ctx, opened.LineageID, dto.ListRevisionsParams{Limit: 100})
	suite.Require().NoError(err)
	suite.Require().Len(history.Revisions, 5)
	for i, rev := range history.Revisions {
		suite.Equal(5-i, rev.Version)
	}
	suite.True(history.Revisions[0].AmountChange.IsZero())
}

func (suite *AccountLedgerServiceTestSuite) TestGetAccountHistory_Paginates() {
	opened, err := suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "EUR", Amount: decPtr("1"),
	})
	suite.Require().NoError(err)
	for _, amount := range []string{"2", "3", "4", "5"} {
		_, err := suite.service.RecordAmountUpdate(suite.ctx, opened.LineageID, dec(amount))
		suite.Require().NoError(err)
	}

	var versions []int
	params := dto.ListRevisionsParams{Limit: 2}
	for pages := 0; pages < 5; pages++ {
		page, err := suite.service.GetAccountHistory(suite.ctx, opened.LineageID, params)
		suite.Require().NoError(err)
		for _, rev := range page.Revisions {
			versions = append(versions, rev.Version)
		}
		if page.NextToken == nil {
			break
		}
		params.NextToken = *page.NextToken
	}
	suite.Equal([]int{5, 4, 3, 2, 1}, versions)

	_, err = suite.service.GetAccountHistory(suite.ctx, opened.LineageID, dto.ListRevisionsParams{NextToken: "garbage!"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.GetAccountHistory(suite.ctx, "unknown", dto.ListRevisionsParams{})
	suite.ErrorIs(err, apperrors.ErrLineageNotFound)
}

func (suite *AccountLedgerServiceTestSuite) TestCascadeRateUpdate_Empty() {
	rate := domain.NewRate("r-1", "rl-usd", "USD", dec("2"), t0)
	result := suite.service.CascadeRateUpdate(suite.ctx, nil, rate)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *AccountLedgerServiceTestSuite) TestRecordAmountUpdate_StoreFailure() {
	failing := &failingAccountRepo{Store: suite.store, err: errors.New("disk on fire")}
	svc := services.NewAccountLedgerService(failing, suite.store, services.WithClock(suite.clock))

	opened, err := suite.service.OpenAccount(suite.ctx, dto.OpenAccountRequest{
		UserID: "user-1", Bank: "Bank", CurrencyCode: "EUR", Amount: decPtr("1"),
	})
	suite.Require().NoError(err)

	_, err = svc.RecordAmountUpdate(suite.ctx, opened.LineageID, dec("2"))
	suite.ErrorIs(err, failing.err)
}

// failingAccountRepo reads from the store but refuses every append.
type failingAccountRepo struct {
	*memory.Store
	err error
}

func (f *failingAccountRepo) AppendAccount(ctx context.Context, account domain.Account) error {
	return f.err
}

// racingRateReader runs race right after the latest rate of a currency was read.
type racingRateReader struct {
	*memory.Store
	race func()
}

func (r *racingRateReader) FindLatestRateByCurrency(ctx context.Context, currencyCode string) (*domain.Rate, error) {
	rate, err := r.Store.FindLatestRateByCurrency(ctx, currencyCode)
	r.race()
	return rate, err
}

func TestAccountLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountLedgerServiceTestSuite))
}
