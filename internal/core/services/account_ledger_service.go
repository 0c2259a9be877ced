package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/SscSPs/currency_baskets/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountLedgerService implements the AccountLedgerSvcFacade interface
type accountLedgerService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	rateRepo    portsrepo.RateReader
}

// NewAccountLedgerService creates a new account ledger service with the provided options
func NewAccountLedgerService(accountRepo portsrepo.AccountRepositoryFacade, rateRepo portsrepo.RateReader, options ...ServiceOption) portssvc.AccountLedgerSvcFacade {
	svc := &accountLedgerService{
		accountRepo: accountRepo,
		rateRepo:    rateRepo,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

// Ensure accountLedgerService implements the AccountLedgerSvcFacade interface
var _ portssvc.AccountLedgerSvcFacade = (*accountLedgerService)(nil)

func (s *accountLedgerService) OpenAccount(ctx context.Context, req dto.OpenAccountRequest) (*domain.Account, error) {
	currencyCode := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if req.UserID == "" || req.Bank == "" {
		return nil, fmt.Errorf("%w: user ID and bank are required", apperrors.ErrValidation)
	}
	if len(currencyCode) != 3 {
		return nil, fmt.Errorf("%w: currency code must be 3 letters", apperrors.ErrValidation)
	}
	if req.Amount == nil {
		return nil, fmt.Errorf("%w: amount is required", apperrors.ErrValidation)
	}

	// An untracked currency is priced 1:1 against the base currency.
	var rate *domain.Rate
	latestRate, err := s.rateRepo.FindLatestRateByCurrency(ctx, currencyCode)
	switch {
	case err == nil:
		rate = latestRate
	case errors.Is(err, apperrors.ErrNotFound):
		s.LogDebug(ctx, "No rate tracked for currency, account opened at par",
			slog.String("currency_code", currencyCode))
	default:
		s.LogError(ctx, err, "Failed to look up rate for new account",
			slog.String("currency_code", currencyCode))
		return nil, fmt.Errorf("failed to look up rate for %s: %w", currencyCode, err)
	}

	account := domain.NewAccount(uuid.NewString(), uuid.NewString(), req.UserID, req.Bank, currencyCode, *req.Amount, rate, s.Now())
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if err := s.accountRepo.AppendAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to open account",
			slog.String("user_id", req.UserID),
			slog.String("currency_code", currencyCode))
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	s.LogInfo(ctx, "Account opened",
		slog.String("lineage_id", account.LineageID),
		slog.String("account_id", account.ID),
		slog.String("currency_code", currencyCode))
	return &account, nil
}

func (s *accountLedgerService) RecordAmountUpdate(ctx context.Context, lineageID string, newAmount decimal.Decimal) (*domain.Account, error) {
	previous, err := s.findLatest(ctx, lineageID)
	if err != nil {
		return nil, err
	}

	next := previous.WithAmount(uuid.NewString(), newAmount, s.Now())
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if err := s.accountRepo.AppendAccount(ctx, next); err != nil {
		s.LogError(ctx, err, "Failed to append account revision",
			slog.String("lineage_id", lineageID),
			slog.Int("version", next.Version))
		return nil, fmt.Errorf("failed to record amount update for account %s: %w", lineageID, err)
	}

	s.LogInfo(ctx, "Account amount updated",
		slog.String("lineage_id", lineageID),
		slog.Int("version", next.Version),
		slog.String("amount_change", next.AmountChange.String()))
	return &next, nil
}

func (s *accountLedgerService) GetAccountHistory(ctx context.Context, lineageID string, params dto.ListRevisionsParams) (*dto.ListAccountRevisionsResponse, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	var beforeVersion *int
	if params.NextToken != "" {
		version, err := pagination.DecodeRevisionToken(params.NextToken, lineageID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		beforeVersion = &version
	}

	// One extra row tells whether another page exists.
	revisions, err := s.accountRepo.ListAccountRevisions(ctx, lineageID, limit+1, beforeVersion)
	if err != nil {
		s.LogError(ctx, err, "Failed to list account revisions", slog.String("lineage_id", lineageID))
		return nil, fmt.Errorf("failed to list revisions of account %s: %w", lineageID, err)
	}
	if len(revisions) == 0 && beforeVersion == nil {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrLineageNotFound, lineageID)
	}

	resp := &dto.ListAccountRevisionsResponse{}
	if len(revisions) > limit {
		revisions = revisions[:limit]
		token := pagination.EncodeRevisionToken(lineageID, revisions[limit-1].Version)
		resp.NextToken = &token
	}
	resp.Revisions = dto.ToListAccountResponse(revisions)
	return resp, nil
}

func (s *accountLedgerService) CascadeRateUpdate(ctx context.Context, accounts []domain.Account, rate domain.Rate) []domain.Account {
	if len(accounts) == 0 {
		s.LogInfo(ctx, "No accounts priced in rate lineage, nothing to revalue",
			slog.String("rate_lineage_id", rate.LineageID),
			slog.String("currency_code", rate.CurrencyCode))
		return []domain.Account{}
	}

	now := s.Now()
	revalued := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		revalued = append(revalued, account.Revalued(uuid.NewString(), rate, now))
	}

	s.LogDebug(ctx, "Accounts revalued",
		slog.String("rate_id", rate.ID),
		slog.Int("count", len(revalued)))
	return revalued
}

func (s *accountLedgerService) findLatest(ctx context.Context, lineageID string) (*domain.Account, error) {
	latest, err := s.accountRepo.FindLatestAccount(ctx, lineageID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Amount update targets unknown account lineage", slog.String("lineage_id", lineageID))
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrLineageNotFound, lineageID)
		}
		s.LogError(ctx, err, "Failed to find latest account revision", slog.String("lineage_id", lineageID))
		return nil, fmt.Errorf("failed to find account %s: %w", lineageID, err)
	}
	return latest, nil
}
