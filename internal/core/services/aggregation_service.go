package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// aggregationService implements the AggregationSvc interface
type aggregationService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAggregationService creates a new aggregation service with the provided options
func NewAggregationService(accountRepo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AggregationSvc {
	svc := &aggregationService{accountRepo: accountRepo}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.AggregationSvc = (*aggregationService)(nil)

func (s *aggregationService) GetLatestAccountsView(ctx context.Context, userIDs []string) (*domain.LatestAccountsView, error) {
	if len(userIDs) == 0 {
		view := domain.EmptyLatestAccountsView()
		return &view, nil
	}

	now := s.Now()
	accounts, err := s.accountRepo.FindLatestAccountsByUserIDs(ctx, userIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to find latest accounts", slog.Int("user_count", len(userIDs)))
		return nil, fmt.Errorf("failed to find latest accounts: %w", err)
	}

	view := domain.EmptyLatestAccountsView()
	view.Accounts = make([]domain.AccountView, 0, len(accounts))
	ratesByID := make(map[string]domain.Rate)
	total := decimal.Zero

	for _, account := range accounts {
		view.Accounts = append(view.Accounts, domain.NewAccountView(account))
		total = total.Add(account.AmountBase)

		if account.Rate == nil {
			continue
		}
		if _, seen := ratesByID[account.Rate.ID]; seen {
			continue
		}
		ratesByID[account.Rate.ID] = *account.Rate

		if account.Rate.Updated == nil {
			s.LogWarn(ctx, "Rate has no update timestamp, excluded from latest rates updated",
				slog.String("rate_id", account.Rate.ID),
				slog.String("currency_code", account.Rate.CurrencyCode))
			continue
		}
		if view.LatestRatesUpdated == nil || account.Rate.Updated.After(*view.LatestRatesUpdated) {
			updated := *account.Rate.Updated
			view.LatestRatesUpdated = &updated
		}
	}

	view.Rates = make([]domain.RateView, 0, len(ratesByID))
	for _, rate := range ratesByID {
		view.Rates = append(view.Rates, domain.NewRateView(rate))
	}
	sort.Slice(view.Rates, func(i, j int) bool {
		if view.Rates[i].CurrencyCode != view.Rates[j].CurrencyCode {
			return view.Rates[i].CurrencyCode < view.Rates[j].CurrencyCode
		}
		return view.Rates[i].ID < view.Rates[j].ID
	})
	view.TotalAmount = total

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		change, err := s.computeChange(gctx, total, userIDs, now.AddDate(0, 0, -7))
		view.WeekBaseAmountChange = change
		return err
	})
	g.Go(func() error {
		change, err := s.computeChange(gctx, total, userIDs, monthsBefore(now, 1))
		view.MonthBaseAmountChange = change
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &view, nil
}

// computeChange compares total against the users' holdings as they stood just before cutoff.
func (s *aggregationService) computeChange(ctx context.Context, total decimal.Decimal, userIDs []string, cutoff time.Time) (domain.AmountChangeView, error) {
	previous, err := s.accountRepo.SumBaseAmountAsOf(ctx, userIDs, cutoff)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum base amount as of cutoff", slog.Time("cutoff", cutoff))
		return domain.AmountChangeView{}, fmt.Errorf("failed to sum base amount as of %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if previous == nil {
		s.LogDebug(ctx, "No snapshot before cutoff", slog.Time("cutoff", cutoff))
	}
	return domain.ComputeAmountChange(total, previous), nil
}

func (s *aggregationService) GetAggregatedAmount(ctx context.Context, userIDs []string) ([]domain.AggregatedAmount, error) {
	if len(userIDs) == 0 {
		return []domain.AggregatedAmount{}, nil
	}
	amounts, err := s.accountRepo.AggregateByCurrencyForLatestAccounts(ctx, userIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate amounts by currency", slog.Int("user_count", len(userIDs)))
		return nil, fmt.Errorf("failed to aggregate amounts: %w", err)
	}
	if amounts == nil {
		amounts = []domain.AggregatedAmount{}
	}
	return amounts, nil
}

// monthsBefore steps back n calendar months, clamping to the last day of the target month
// (March 31 minus one month is February 28 or 29, not March 3).
func monthsBefore(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	hour, minute, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}
