package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/core/ports/publishers"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rateLedgerService implements the RateLedgerSvcFacade interface
type rateLedgerService struct {
	BaseService
	rateRepo    portsrepo.RateRepositoryFacade
	accountRepo portsrepo.AccountReader
	revaluer    portssvc.AccountRevaluerSvc
	publisher   publishers.RateEventPublisher
}

// NewRateLedgerService creates a new rate ledger service. A nil publisher disables event publication.
func NewRateLedgerService(
	rateRepo portsrepo.RateRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	revaluer portssvc.AccountRevaluerSvc,
	publisher publishers.RateEventPublisher,
	options ...ServiceOption,
) portssvc.RateLedgerSvcFacade {
	svc := &rateLedgerService{
		rateRepo:    rateRepo,
		accountRepo: accountRepo,
		revaluer:    revaluer,
		publisher:   publisher,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.RateLedgerSvcFacade = (*rateLedgerService)(nil)

func (s *rateLedgerService) RegisterRate(ctx context.Context, req dto.RegisterRateRequest) (*domain.Rate, error) {
	currencyCode := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if req.Rate == nil {
		return nil, fmt.Errorf("%w: rate is required", apperrors.ErrValidation)
	}
	rate := domain.NewRate(uuid.NewString(), uuid.NewString(), currencyCode, *req.Rate, s.Now())
	if err := rate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	existing, err := s.rateRepo.FindLatestRateByCurrency(ctx, currencyCode)
	if err == nil {
		return nil, fmt.Errorf("%w: currency %s is already tracked by rate %s", apperrors.ErrDuplicate, currencyCode, existing.LineageID)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to check existing rate", slog.String("currency_code", currencyCode))
		return nil, fmt.Errorf("failed to check existing rate for %s: %w", currencyCode, err)
	}

	if err := s.rateRepo.AppendRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to register rate", slog.String("currency_code", currencyCode))
		return nil, fmt.Errorf("failed to register rate for %s: %w", currencyCode, err)
	}

	s.LogInfo(ctx, "Rate registered",
		slog.String("lineage_id", rate.LineageID),
		slog.String("currency_code", currencyCode),
		slog.String("rate", rate.Rate.String()))
	return &rate, nil
}

func (s *rateLedgerService) RecordRateUpdate(ctx context.Context, lineageID string, newRate decimal.Decimal) (*domain.RateUpdateResult, error) {
	previous, err := s.rateRepo.FindLatestRate(ctx, lineageID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Rate update targets unknown rate lineage", slog.String("lineage_id", lineageID))
			return nil, fmt.Errorf("%w: rate %s", apperrors.ErrLineageNotFound, lineageID)
		}
		s.LogError(ctx, err, "Failed to find latest rate revision", slog.String("lineage_id", lineageID))
		return nil, fmt.Errorf("failed to find rate %s: %w", lineageID, err)
	}

	next := previous.NextRevision(uuid.NewString(), newRate, s.Now())
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	affected, err := s.accountRepo.FindLatestAccountsByRateLineage(ctx, lineageID)
	if err != nil {
		s.LogError(ctx, err, "Failed to find accounts priced in rate lineage", slog.String("lineage_id", lineageID))
		return nil, fmt.Errorf("failed to find accounts for rate %s: %w", lineageID, err)
	}
	revalued := s.revaluer.CascadeRateUpdate(ctx, affected, next)

	if err := s.rateRepo.AppendRateWithAccounts(ctx, next, revalued); err != nil {
		s.LogError(ctx, err, "Failed to commit rate update",
			slog.String("lineage_id", lineageID),
			slog.Int("version", next.Version),
			slog.Int("accounts", len(revalued)))
		return nil, fmt.Errorf("failed to record rate update for %s: %w", lineageID, err)
	}

	result := &domain.RateUpdateResult{Rate: next, Accounts: revalued}
	s.LogInfo(ctx, "Rate updated",
		slog.String("lineage_id", lineageID),
		slog.String("currency_code", next.CurrencyCode),
		slog.Int("version", next.Version),
		slog.Int("revalued_accounts", len(revalued)))

	s.publish(ctx, *result)
	return result, nil
}

// publish announces a committed rate update. Failures are only logged.
func (s *rateLedgerService) publish(ctx context.Context, result domain.RateUpdateResult) {
	if s.publisher == nil {
		return
	}
	event := domain.NewRateRevaluedEvent(result, s.Now())
	if err := s.publisher.PublishRateRevalued(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to publish rate revalued event",
			slog.String("rate_id", event.RateID),
			slog.String("currency_code", event.CurrencyCode))
	}
}

func (s *rateLedgerService) ListLatestRates(ctx context.Context) ([]domain.Rate, error) {
	rates, err := s.rateRepo.ListLatestRates(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list latest rates")
		return nil, fmt.Errorf("failed to list latest rates: %w", err)
	}
	return rates, nil
}

func (s *rateLedgerService) GetRateHistory(ctx context.Context, lineageID string) ([]domain.Rate, error) {
	revisions, err := s.rateRepo.ListRateRevisions(ctx, lineageID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list rate revisions", slog.String("lineage_id", lineageID))
		return nil, fmt.Errorf("failed to list revisions of rate %s: %w", lineageID, err)
	}
	if len(revisions) == 0 {
		return nil, fmt.Errorf("%w: rate %s", apperrors.ErrLineageNotFound, lineageID)
	}
	return revisions, nil
}
