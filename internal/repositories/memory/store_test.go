package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/currency_baskets/internal/apperrors"
	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStore_AppendAccount_CompareAndAppend(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := domain.NewAccount("acc-1", "lin-1", "user-1", "Bank", "EUR", dec("10"), nil, t0)
	require.NoError(t, store.AppendAccount(ctx, first))

	// A second version 1 for the same lineage loses.
	dupFirst := domain.NewAccount("acc-x", "lin-1", "user-1", "Bank", "EUR", dec("11"), nil, t0)
	assert.ErrorIs(t, store.AppendAccount(ctx, dupFirst), apperrors.ErrConflict)

	second := first.WithAmount("acc-2", dec("20"), t0.Add(time.Hour))
	require.NoError(t, store.AppendAccount(ctx, second))

	// Built against the stale head: same version as what is already stored.
	stale := first.WithAmount("acc-3", dec("30"), t0.Add(2*time.Hour))
	assert.ErrorIs(t, store.AppendAccount(ctx, stale), apperrors.ErrConflict)

	latest, err := store.FindLatestAccount(ctx, "lin-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-2", latest.ID)
	assert.Equal(t, 2, latest.Version)

	_, err = store.FindLatestAccount(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_AppendAccounts_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	a := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "EUR", dec("1"), nil, t0)
	b := domain.NewAccount("b-1", "lin-b", "user-1", "Bank", "EUR", dec("2"), nil, t0)
	require.NoError(t, store.AppendAccounts(ctx, []domain.Account{a}))

	// b is fine on its own, but the stale a revision poisons the batch.
	staleA := domain.NewAccount("a-x", "lin-a", "user-1", "Bank", "EUR", dec("5"), nil, t0)
	err := store.AppendAccounts(ctx, []domain.Account{b, staleA})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = store.FindLatestAccount(ctx, "lin-b")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "nothing from a rejected batch is visible")

	// Two revisions of one lineage in a single batch are rejected as well.
	next := a.WithAmount("a-2", dec("3"), t0)
	after := next.WithAmount("a-3", dec("4"), t0)
	assert.ErrorIs(t, store.AppendAccounts(ctx, []domain.Account{next, after}), apperrors.ErrConflict)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rate := domain.NewRate("r-1", "rl-usd", "USD", dec("2"), t0)
	require.NoError(t, store.AppendRate(ctx, rate))
	require.NoError(t, store.AppendAccount(ctx, domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "USD", dec("1"), &rate, t0)))

	got, err := store.FindLatestAccount(ctx, "lin-a")
	require.NoError(t, err)
	got.Rate.Rate = dec("999")
	got.Amount = dec("999")

	again, err := store.FindLatestAccount(ctx, "lin-a")
	require.NoError(t, err)
	assert.True(t, again.Amount.Equal(dec("1")))
	assert.True(t, again.Rate.Rate.Equal(dec("2")))
}

func TestStore_Rates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	usd := domain.NewRate("r-usd-1", "rl-usd", "USD", dec("1.5"), t0)
	eur := domain.NewRate("r-eur-1", "rl-eur", "EUR", dec("1.1"), t0)
	require.NoError(t, store.AppendRate(ctx, usd))
	require.NoError(t, store.AppendRate(ctx, eur))

	// One lineage per currency.
	err := store.AppendRate(ctx, domain.NewRate("r-usd-x", "rl-usd-2", "USD", dec("3"), t0))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	usd2 := usd.NextRevision("r-usd-2", dec("2"), t0.Add(time.Hour))
	require.NoError(t, store.AppendRate(ctx, usd2))
	assert.ErrorIs(t, store.AppendRate(ctx, usd.NextRevision("r-usd-3", dec("4"), t0)), apperrors.ErrConflict)

	byCurrency, err := store.FindLatestRateByCurrency(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, "r-usd-2", byCurrency.ID)

	_, err = store.FindLatestRateByCurrency(ctx, "GBP")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	latest, err := store.ListLatestRates(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "EUR", latest[0].CurrencyCode)
	assert.Equal(t, "r-usd-2", latest[1].ID)

	history, err := store.ListRateRevisions(ctx, "rl-usd")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, 1, history[1].Version)
}

func TestStore_AppendRateWithAccounts_Atomic(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	rate := domain.NewRate("r-1", "rl-usd", "USD", dec("1.5"), t0)
	require.NoError(t, store.AppendRate(ctx, rate))
	acc := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "USD", dec("100"), &rate, t0)
	require.NoError(t, store.AppendAccount(ctx, acc))

	next := rate.NextRevision("r-2", dec("2"), t0.Add(time.Hour))
	revalued := acc.Revalued("a-2", next, t0.Add(time.Hour))

	// A concurrent amount update wins the account lineage first.
	require.NoError(t, store.AppendAccount(ctx, acc.WithAmount("a-w", dec("120"), t0.Add(time.Minute))))

	err := store.AppendRateWithAccounts(ctx, next, []domain.Account{revalued})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	latestRate, err := store.FindLatestRate(ctx, "rl-usd")
	require.NoError(t, err)
	assert.Equal(t, "r-1", latestRate.ID, "the rate revision is rolled back with the cascade")
}

func TestStore_AppendAccount_RejectsStaleRate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	rate := domain.NewRate("r-1", "rl-usd", "USD", dec("1.5"), t0)
	require.NoError(t, store.AppendRate(ctx, rate))
	next := rate.NextRevision("r-2", dec("2"), t0.Add(time.Hour))
	require.NoError(t, store.AppendRate(ctx, next))

	stale := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "USD", dec("100"), &rate, t0)
	assert.ErrorIs(t, store.AppendAccount(ctx, stale), apperrors.ErrConflict)

	unknown := domain.NewRate("r-x", "rl-x", "GBP", dec("1.3"), t0)
	assert.ErrorIs(t, store.AppendAccount(ctx, domain.NewAccount("b-1", "lin-b", "user-1", "Bank", "GBP", dec("1"), &unknown, t0)),
		apperrors.ErrConflict, "a rate that was never stored is not current either")

	_, err := store.FindLatestAccount(ctx, "lin-a")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	current := domain.NewAccount("a-2", "lin-a", "user-1", "Bank", "USD", dec("100"), &next, t0)
	require.NoError(t, store.AppendAccount(ctx, current))
}

func TestStore_AppendRateWithAccounts_RequiresEveryPricedAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	rate := domain.NewRate("r-1", "rl-usd", "USD", dec("1.5"), t0)
	require.NoError(t, store.AppendRate(ctx, rate))
	a := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "USD", dec("100"), &rate, t0)
	b := domain.NewAccount("b-1", "lin-b", "user-2", "Bank", "USD", dec("50"), &rate, t0)
	require.NoError(t, store.AppendAccounts(ctx, []domain.Account{a, b}))

	next := rate.NextRevision("r-2", dec("2"), t0.Add(time.Hour))
	revaluedA := a.Revalued("a-2", next, t0.Add(time.Hour))

	// b was opened after the cascade read its accounts.
	err := store.AppendRateWithAccounts(ctx, next, []domain.Account{revaluedA})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	latestRate, err := store.FindLatestRate(ctx, "rl-usd")
	require.NoError(t, err)
	assert.Equal(t, "r-1", latestRate.ID)

	// A revision built on a rate other than the one being committed is rejected too.
	other := a.Revalued("a-3", rate, t0.Add(time.Hour))
	revaluedB := b.Revalued("b-2", next, t0.Add(time.Hour))
	assert.ErrorIs(t, store.AppendRateWithAccounts(ctx, next, []domain.Account{other, revaluedB}), apperrors.ErrConflict)

	require.NoError(t, store.AppendRateWithAccounts(ctx, next, []domain.Account{revaluedA, revaluedB}))
}

func TestStore_LatestSelections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	usd := domain.NewRate("r-usd-1", "rl-usd", "USD", dec("2"), t0)
	require.NoError(t, store.AppendRate(ctx, usd))

	a := domain.NewAccount("a-1", "lin-a", "user-1", "Bank A", "USD", dec("100"), &usd, t0)
	b := domain.NewAccount("b-1", "lin-b", "user-2", "Bank B", "USD", dec("50"), &usd, t0)
	c := domain.NewAccount("c-1", "lin-c", "user-1", "Bank C", "CHF", dec("7"), nil, t0)
	d := domain.NewAccount("d-1", "lin-d", "user-3", "Bank D", "CHF", dec("9"), nil, t0)
	require.NoError(t, store.AppendAccounts(ctx, []domain.Account{a, b, c, d}))
	require.NoError(t, store.AppendAccount(ctx, a.WithAmount("a-2", dec("120"), t0.Add(48*time.Hour))))

	byUser, err := store.FindLatestAccountsByUserIDs(ctx, []string{"user-1", "user-2"})
	require.NoError(t, err)
	require.Len(t, byUser, 3)
	ids := []string{byUser[0].ID, byUser[1].ID, byUser[2].ID}
	assert.Equal(t, []string{"c-1", "a-2", "b-1"}, ids, "ordered by currency, bank, lineage")

	byRate, err := store.FindLatestAccountsByRateLineage(ctx, "rl-usd")
	require.NoError(t, err)
	assert.Len(t, byRate, 2)

	none, err := store.FindLatestAccountsByUserIDs(ctx, []string{"nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	agg, err := store.AggregateByCurrencyForLatestAccounts(ctx, []string{"user-1", "user-2"})
	require.NoError(t, err)
	require.Len(t, agg, 2)
	assert.Equal(t, "CHF", agg[0].CurrencyCode)
	assert.True(t, agg[0].Amount.Equal(dec("7")))
	assert.Equal(t, "USD", agg[1].CurrencyCode)
	assert.True(t, agg[1].Amount.Equal(dec("170")))
	assert.True(t, agg[1].AmountBase.Equal(dec("340")))
}

func TestStore_SumBaseAmountAsOf(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	a := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "EUR", dec("100"), nil, t0)
	require.NoError(t, store.AppendAccount(ctx, a))
	a2 := a.WithAmount("a-2", dec("150"), t0.Add(24*time.Hour))
	require.NoError(t, store.AppendAccount(ctx, a2))
	b := domain.NewAccount("b-1", "lin-b", "user-1", "Bank", "EUR", dec("5"), nil, t0.Add(48*time.Hour))
	require.NoError(t, store.AppendAccount(ctx, b))

	sum, err := store.SumBaseAmountAsOf(ctx, []string{"user-1"}, t0)
	require.NoError(t, err)
	assert.Nil(t, sum, "the cutoff is exclusive")

	sum, err = store.SumBaseAmountAsOf(ctx, []string{"user-1"}, t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.True(t, sum.Equal(dec("100")))

	sum, err = store.SumBaseAmountAsOf(ctx, []string{"user-1"}, t0.Add(72*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.True(t, sum.Equal(dec("155")))

	sum, err = store.SumBaseAmountAsOf(ctx, []string{"user-2"}, t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, sum)
}

func TestStore_ListAccountRevisions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	acc := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "EUR", dec("1"), nil, t0)
	require.NoError(t, store.AppendAccount(ctx, acc))
	for _, id := range []string{"a-2", "a-3", "a-4"} {
		acc = acc.WithAmount(id, acc.Amount.Add(dec("1")), t0)
		require.NoError(t, store.AppendAccount(ctx, acc))
	}

	page, err := store.ListAccountRevisions(ctx, "lin-a", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 4, page[0].Version)
	assert.Equal(t, 3, page[1].Version)

	before := 3
	page, err = store.ListAccountRevisions(ctx, "lin-a", 10, &before)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].Version)
	assert.Equal(t, 1, page[1].Version)

	page, err = store.ListAccountRevisions(ctx, "missing", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStore_ConcurrentAppendsSameLineage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first := domain.NewAccount("a-1", "lin-a", "user-1", "Bank", "EUR", dec("1"), nil, t0)
	require.NoError(t, store.AppendAccount(ctx, first))

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := first.WithAmount("a-next-"+string(rune('a'+i)), decimal.NewFromInt(int64(i)), t0)
			errs[i] = store.AppendAccount(ctx, next)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	}
	assert.Equal(t, 1, succeeded, "exactly one writer wins against the same previous revision")

	revisions, err := store.ListAccountRevisions(ctx, "lin-a", 10, nil)
	require.NoError(t, err)
	assert.Len(t, revisions, 2)
}
