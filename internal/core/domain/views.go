package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeDirection classifies the sign of an amount change.
type ChangeDirection string

const (
	ChangePositive ChangeDirection = "positive"
	ChangeNegative ChangeDirection = "negative"
	ChangeZero     ChangeDirection = "zero"
)

type changeTags struct {
	style string
	icon  string
}

var changeTagsByDirection = map[ChangeDirection]changeTags{
	ChangePositive: {style: "bg-success", icon: "fa-long-arrow-up"},
	ChangeNegative: {style: "bg-danger", icon: "fa-long-arrow-down"},
	ChangeZero:     {style: "bg-primary", icon: "fa-ban"},
}

// DirectionOf classifies change by its sign.
func DirectionOf(change decimal.Decimal) ChangeDirection {
	switch change.Sign() {
	case 1:
		return ChangePositive
	case -1:
		return ChangeNegative
	default:
		return ChangeZero
	}
}

// Style returns the presentation style tag for the direction.
func (d ChangeDirection) Style() string {
	return changeTagsByDirection[d].style
}

// Icon returns the presentation icon tag for the direction.
func (d ChangeDirection) Icon() string {
	return changeTagsByDirection[d].icon
}

// AmountChangeView is the change of a total against an earlier snapshot, tagged for presentation.
type AmountChangeView struct {
	Change    decimal.Decimal `json:"change"`
	Direction ChangeDirection `json:"direction"`
	Style     string          `json:"style"`
	Icon      string          `json:"icon"`
}

// NewAmountChangeView tags change according to its sign.
func NewAmountChangeView(change decimal.Decimal) AmountChangeView {
	direction := DirectionOf(change)
	return AmountChangeView{
		Change:    change,
		Direction: direction,
		Style:     direction.Style(),
		Icon:      direction.Icon(),
	}
}

// ComputeAmountChange compares current with a previous snapshot total.
// Without a snapshot there is nothing to compare against and the change is zero.
func ComputeAmountChange(current decimal.Decimal, previous *decimal.Decimal) AmountChangeView {
	change := decimal.Zero
	if previous != nil {
		change = current.Sub(*previous)
	}
	return NewAmountChangeView(change)
}

// RateView is the read projection of a rate revision.
type RateView struct {
	ID           string          `json:"id"`
	LineageID    string          `json:"lineageID"`
	CurrencyCode string          `json:"currencyCode"`
	Rate         decimal.Decimal `json:"rate"`
	Updated      *time.Time      `json:"updated"`
	Version      int             `json:"version"`
}

// NewRateView projects r.
func NewRateView(r Rate) RateView {
	return RateView{
		ID:           r.ID,
		LineageID:    r.LineageID,
		CurrencyCode: r.CurrencyCode,
		Rate:         r.Rate,
		Updated:      r.Updated,
		Version:      r.Version,
	}
}

// AccountView is the read projection of an account revision.
type AccountView struct {
	ID               string          `json:"id"`
	LineageID        string          `json:"lineageID"`
	UserID           string          `json:"userID"`
	Bank             string          `json:"bank"`
	CurrencyCode     string          `json:"currencyCode"`
	Amount           decimal.Decimal `json:"amount"`
	AmountChange     decimal.Decimal `json:"amountChange"`
	RateID           string          `json:"rateID,omitempty"`
	AmountBase       decimal.Decimal `json:"amountBase"`
	AmountBaseChange decimal.Decimal `json:"amountBaseChange"`
	Version          int             `json:"version"`
	Updated          time.Time       `json:"updated"`
}

// NewAccountView projects a.
func NewAccountView(a Account) AccountView {
	return AccountView{
		ID:               a.ID,
		LineageID:        a.LineageID,
		UserID:           a.UserID,
		Bank:             a.Bank,
		CurrencyCode:     a.CurrencyCode,
		Amount:           a.Amount,
		AmountChange:     a.AmountChange,
		RateID:           a.RateID(),
		AmountBase:       a.AmountBase,
		AmountBaseChange: a.AmountBaseChange,
		Version:          a.Version,
		Updated:          a.Updated,
	}
}

// LatestAccountsView is the point-in-time view over a user set's latest account revisions.
type LatestAccountsView struct {
	Accounts              []AccountView    `json:"accounts"`
	Rates                 []RateView       `json:"rates"`              // Distinct rate revisions referenced by Accounts
	LatestRatesUpdated    *time.Time       `json:"latestRatesUpdated"` // Nil when no attached rate carries a timestamp
	TotalAmount           decimal.Decimal  `json:"totalAmount"`
	WeekBaseAmountChange  AmountChangeView `json:"weekBaseAmountChange"`
	MonthBaseAmountChange AmountChangeView `json:"monthBaseAmountChange"`
}

// EmptyLatestAccountsView is the view of a user set holding nothing.
func EmptyLatestAccountsView() LatestAccountsView {
	return LatestAccountsView{
		Accounts:              []AccountView{},
		Rates:                 []RateView{},
		TotalAmount:           decimal.Zero,
		WeekBaseAmountChange:  NewAmountChangeView(decimal.Zero),
		MonthBaseAmountChange: NewAmountChangeView(decimal.Zero),
	}
}

// AggregatedAmount sums the latest holdings of one currency.
type AggregatedAmount struct {
	CurrencyCode string          `json:"currencyCode"`
	Amount       decimal.Decimal `json:"amount"`     // Native currency
	AmountBase   decimal.Decimal `json:"amountBase"` // Base currency
}
