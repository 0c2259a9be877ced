package domain_test

import (
	"testing"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewAmountChangeView(t *testing.T) {
	tests := []struct {
		name      string
		change    decimal.Decimal
		direction domain.ChangeDirection
		style     string
		icon      string
	}{
		{name: "increase", change: dec("12.5"), direction: domain.ChangePositive, style: "bg-success", icon: "fa-long-arrow-up"},
		{name: "decrease", change: dec("-0.01"), direction: domain.ChangeNegative, style: "bg-danger", icon: "fa-long-arrow-down"},
		{name: "flat", change: decimal.Zero, direction: domain.ChangeZero, style: "bg-primary", icon: "fa-ban"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := domain.NewAmountChangeView(tt.change)
			assert.True(t, tt.change.Equal(view.Change))
			assert.Equal(t, tt.direction, view.Direction)
			assert.Equal(t, tt.style, view.Style)
			assert.Equal(t, tt.icon, view.Icon)
		})
	}
}

func TestComputeAmountChange(t *testing.T) {
	previous := dec("80")

	got := domain.ComputeAmountChange(dec("100"), &previous)
	assert.True(t, got.Change.Equal(dec("20")))
	assert.Equal(t, domain.ChangePositive, got.Direction)

	// No snapshot before the cutoff: zero regardless of the current total.
	got = domain.ComputeAmountChange(dec("100"), nil)
	assert.True(t, got.Change.IsZero())
	assert.Equal(t, domain.ChangeZero, got.Direction)
	assert.Equal(t, "bg-primary", got.Style)
}

func TestEmptyLatestAccountsView(t *testing.T) {
	view := domain.EmptyLatestAccountsView()

	assert.Empty(t, view.Accounts)
	assert.NotNil(t, view.Accounts)
	assert.Empty(t, view.Rates)
	assert.Nil(t, view.LatestRatesUpdated)
	assert.True(t, view.TotalAmount.IsZero())
	assert.Equal(t, domain.ChangeZero, view.WeekBaseAmountChange.Direction)
	assert.Equal(t, domain.ChangeZero, view.MonthBaseAmountChange.Direction)
}

func TestNewAccountView(t *testing.T) {
	rate := usdRate("3")
	acc := domain.NewAccount("acc-1", "lineage-1", "user-1", "Bank", "USD", dec("2"), &rate, t0)

	view := domain.NewAccountView(acc)
	assert.Equal(t, "rate-1", view.RateID)
	assert.True(t, view.AmountBase.Equal(dec("6")))

	untracked := domain.NewAccountView(domain.NewAccount("acc-2", "lineage-2", "user-1", "Bank", "CHF", dec("2"), nil, t0))
	assert.Empty(t, untracked.RateID)
}
