// Package memory keeps account and rate revisions in process memory. It backs local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// Store is an append-only arena of revisions with a latest pointer per lineage.
// Appends take the write lock, so a batch either lands completely or not at all.
type Store struct {
	mu sync.RWMutex

	accounts        map[string]domain.Account // revision ID -> revision
	accountHeads    map[string]string         // lineage ID -> latest revision ID
	accountLineages map[string][]string       // lineage ID -> revision IDs in version order

	rates          map[string]domain.Rate
	rateHeads      map[string]string
	rateLineages   map[string][]string
	rateByCurrency map[string]string // currency code -> lineage ID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:        make(map[string]domain.Account),
		accountHeads:    make(map[string]string),
		accountLineages: make(map[string][]string),
		rates:           make(map[string]domain.Rate),
		rateHeads:       make(map[string]string),
		rateLineages:    make(map[string][]string),
		rateByCurrency:  make(map[string]string),
	}
}

// NewRepositoryProvider exposes one store through the repository ports.
func NewRepositoryProvider(store *Store) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		AccountRepo: store,
		RateRepo:    store,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.RateRepositoryFacade    = (*Store)(nil)
)

func (s *Store) FindLatestAccount(ctx context.Context, lineageID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	head, ok := s.accountHeads[lineageID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	account := cloneAccount(s.accounts[head])
	return &account, nil
}

func (s *Store) FindLatestAccountsByUserIDs(ctx context.Context, userIDs []string) ([]domain.Account, error) {
	users := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestAccountsWhere(func(a domain.Account) bool {
		_, ok := users[a.UserID]
		return ok
	}), nil
}

func (s *Store) FindLatestAccountsByRateLineage(ctx context.Context, rateLineageID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestAccountsWhere(func(a domain.Account) bool {
		return a.Rate != nil && a.Rate.LineageID == rateLineageID
	}), nil
}

func (s *Store) ListAccountRevisions(ctx context.Context, lineageID string, limit int, beforeVersion *int) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.accountLineages[lineageID]
	revisions := make([]domain.Account, 0, min(limit, len(ids)))
	for i := len(ids) - 1; i >= 0 && len(revisions) < limit; i-- {
		account := s.accounts[ids[i]]
		if beforeVersion != nil && account.Version >= *beforeVersion {
			continue
		}
		revisions = append(revisions, cloneAccount(account))
	}
	return revisions, nil
}

func (s *Store) SumBaseAmountAsOf(ctx context.Context, userIDs []string, asOf time.Time) (*decimal.Decimal, error) {
	users := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum *decimal.Decimal
	for _, ids := range s.accountLineages {
		// Revisions are stored in version order; the last one before asOf is the snapshot.
		var snapshot *domain.Account
		for _, id := range ids {
			account := s.accounts[id]
			if account.Updated.Before(asOf) {
				snapshot = &account
			}
		}
		if snapshot == nil {
			continue
		}
		if _, ok := users[snapshot.UserID]; !ok {
			continue
		}
		total := snapshot.AmountBase
		if sum != nil {
			total = sum.Add(total)
		}
		sum = &total
	}
	return sum, nil
}

func (s *Store) AggregateByCurrencyForLatestAccounts(ctx context.Context, userIDs []string) ([]domain.AggregatedAmount, error) {
	latest, err := s.FindLatestAccountsByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	byCurrency := make(map[string]*domain.AggregatedAmount)
	for _, account := range latest {
		agg, ok := byCurrency[account.CurrencyCode]
		if !ok {
			agg = &domain.AggregatedAmount{CurrencyCode: account.CurrencyCode, Amount: decimal.Zero, AmountBase: decimal.Zero}
			byCurrency[account.CurrencyCode] = agg
		}
		agg.Amount = agg.Amount.Add(account.Amount)
		agg.AmountBase = agg.AmountBase.Add(account.AmountBase)
	}

	amounts := make([]domain.AggregatedAmount, 0, len(byCurrency))
	for _, agg := range byCurrency {
		amounts = append(amounts, *agg)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].CurrencyCode < amounts[j].CurrencyCode })
	return amounts, nil
}

func (s *Store) AppendAccount(ctx context.Context, account domain.Account) error {
	return s.AppendAccounts(ctx, []domain.Account{account})
}

func (s *Store) AppendAccounts(ctx context.Context, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAccounts(accounts, nil); err != nil {
		return err
	}
	s.putAccounts(accounts)
	return nil
}

func (s *Store) FindLatestRate(ctx context.Context, lineageID string) (*domain.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	head, ok := s.rateHeads[lineageID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	rate := s.rates[head]
	return &rate, nil
}

func (s *Store) FindLatestRateByCurrency(ctx context.Context, currencyCode string) (*domain.Rate, error) {
	s.mu.RLock()
	lineageID, ok := s.rateByCurrency[currencyCode]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s.FindLatestRate(ctx, lineageID)
}

func (s *Store) ListLatestRates(ctx context.Context) ([]domain.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rates := make([]domain.Rate, 0, len(s.rateHeads))
	for _, head := range s.rateHeads {
		rates = append(rates, s.rates[head])
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].CurrencyCode < rates[j].CurrencyCode })
	return rates, nil
}

func (s *Store) ListRateRevisions(ctx context.Context, lineageID string) ([]domain.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.rateLineages[lineageID]
	revisions := make([]domain.Rate, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		revisions = append(revisions, s.rates[ids[i]])
	}
	return revisions, nil
}

func (s *Store) AppendRate(ctx context.Context, rate domain.Rate) error {
	return s.AppendRateWithAccounts(ctx, rate, nil)
}

func (s *Store) AppendRateWithAccounts(ctx context.Context, rate domain.Rate, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRate(rate); err != nil {
		return err
	}
	if err := s.checkCascade(rate, accounts); err != nil {
		return err
	}
	if err := s.checkAccounts(accounts, &rate); err != nil {
		return err
	}

	s.rates[rate.ID] = rate
	s.rateHeads[rate.LineageID] = rate.ID
	s.rateLineages[rate.LineageID] = append(s.rateLineages[rate.LineageID], rate.ID)
	if rate.Version == 1 {
		s.rateByCurrency[rate.CurrencyCode] = rate.LineageID
	}
	s.putAccounts(accounts)
	return nil
}

// latestAccountsWhere must be called with the read lock held. Results are ordered by currency,
// then bank, then lineage so repeated reads are identical.
func (s *Store) latestAccountsWhere(keep func(domain.Account) bool) []domain.Account {
	result := make([]domain.Account, 0)
	for _, head := range s.accountHeads {
		account := s.accounts[head]
		if keep(account) {
			result = append(result, cloneAccount(account))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CurrencyCode != b.CurrencyCode {
			return a.CurrencyCode < b.CurrencyCode
		}
		if a.Bank != b.Bank {
			return a.Bank < b.Bank
		}
		return a.LineageID < b.LineageID
	})
	return result
}

// checkAccounts verifies the compare-and-append rule for a batch and that every attached rate is
// the latest of its lineage. pending is the rate revision committed together with the batch, if any.
// Must be called with the write lock held.
func (s *Store) checkAccounts(accounts []domain.Account, pending *domain.Rate) error {
	seen := make(map[string]struct{}, len(accounts))
	for _, account := range accounts {
		if _, dup := seen[account.LineageID]; dup {
			return fmt.Errorf("%w: lineage %s appears twice in one batch", apperrors.ErrConflict, account.LineageID)
		}
		seen[account.LineageID] = struct{}{}

		if _, exists := s.accounts[account.ID]; exists {
			return fmt.Errorf("%w: account revision %s", apperrors.ErrDuplicate, account.ID)
		}
		latestVersion := 0
		if head, ok := s.accountHeads[account.LineageID]; ok {
			latestVersion = s.accounts[head].Version
		}
		if account.Version != latestVersion+1 {
			return fmt.Errorf("%w: account lineage %s is at version %d, got %d",
				apperrors.ErrConflict, account.LineageID, latestVersion, account.Version)
		}
		if account.Rate != nil && !s.isCurrentRate(*account.Rate, pending) {
			return fmt.Errorf("%w: account %s is priced at rate revision %s, which is no longer current",
				apperrors.ErrConflict, account.ID, account.Rate.ID)
		}
	}
	return nil
}

func (s *Store) isCurrentRate(rate domain.Rate, pending *domain.Rate) bool {
	if pending != nil && pending.LineageID == rate.LineageID {
		return pending.ID == rate.ID
	}
	head, ok := s.rateHeads[rate.LineageID]
	return ok && head == rate.ID
}

// checkCascade rejects a rate revision whose batch misses an account currently priced in its lineage.
// Must be called with the write lock held.
func (s *Store) checkCascade(rate domain.Rate, accounts []domain.Account) error {
	included := make(map[string]struct{}, len(accounts))
	for _, account := range accounts {
		included[account.LineageID] = struct{}{}
	}
	for lineageID, head := range s.accountHeads {
		account := s.accounts[head]
		if account.Rate == nil || account.Rate.LineageID != rate.LineageID {
			continue
		}
		if _, ok := included[lineageID]; !ok {
			return fmt.Errorf("%w: account lineage %s priced in rate lineage %s is missing from the cascade",
				apperrors.ErrConflict, lineageID, rate.LineageID)
		}
	}
	return nil
}

func (s *Store) putAccounts(accounts []domain.Account) {
	for _, account := range accounts {
		stored := cloneAccount(account)
		s.accounts[stored.ID] = stored
		s.accountHeads[stored.LineageID] = stored.ID
		s.accountLineages[stored.LineageID] = append(s.accountLineages[stored.LineageID], stored.ID)
	}
}

// checkRate verifies the compare-and-append rule for a rate revision. Must be called with the write lock held.
func (s *Store) checkRate(rate domain.Rate) error {
	if _, exists := s.rates[rate.ID]; exists {
		return fmt.Errorf("%w: rate revision %s", apperrors.ErrDuplicate, rate.ID)
	}
	if rate.Version == 1 {
		if lineageID, tracked := s.rateByCurrency[rate.CurrencyCode]; tracked {
			return fmt.Errorf("%w: currency %s is already tracked by rate %s", apperrors.ErrDuplicate, rate.CurrencyCode, lineageID)
		}
	}
	latestVersion := 0
	if head, ok := s.rateHeads[rate.LineageID]; ok {
		latestVersion = s.rates[head].Version
	}
	if rate.Version != latestVersion+1 {
		return fmt.Errorf("%w: rate lineage %s is at version %d, got %d",
			apperrors.ErrConflict, rate.LineageID, latestVersion, rate.Version)
	}
	return nil
}

func cloneAccount(a domain.Account) domain.Account {
	if a.Rate != nil {
		rate := *a.Rate
		a.Rate = &rate
	}
	if a.PreviousID != nil {
		previousID := *a.PreviousID
		a.PreviousID = &previousID
	}
	return a
}
