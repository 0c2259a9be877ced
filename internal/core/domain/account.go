package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is one immutable revision of a user's holding at a bank in a single currency.
// Every change appends a successor revision; earlier revisions are never edited.
type Account struct {
	ID               string          `json:"id"`               // Revision ID (unique per row)
	LineageID        string          `json:"lineageID"`        // Stable across revisions
	UserID           string          `json:"userID"`           // Owning user reference
	Bank             string          `json:"bank"`             // Bank holding the funds
	CurrencyCode     string          `json:"currencyCode"`     // Must match Rate.CurrencyCode when a rate is attached
	Amount           decimal.Decimal `json:"amount"`           // Holding in native currency
	AmountChange     decimal.Decimal `json:"amountChange"`     // Amount minus the previous revision's amount
	Rate             *Rate           `json:"rate"`             // Rate revision in effect, nil when the currency is untracked
	AmountBase       decimal.Decimal `json:"amountBase"`       // Amount converted to the base currency
	AmountBaseChange decimal.Decimal `json:"amountBaseChange"` // AmountBase minus the previous revision's AmountBase
	PreviousID       *string         `json:"previousID"`       // Nil for the first revision
	Version          int             `json:"version"`          // 1..N within the lineage
	Updated          time.Time       `json:"updated"`
}

// BaseAmount converts amount into the base currency using rate.
// Without a rate the amount is already expressed in the base currency.
func BaseAmount(amount decimal.Decimal, rate *Rate) decimal.Decimal {
	if rate == nil {
		return amount
	}
	return amount.Mul(rate.Rate)
}

// NewAccount builds the first revision of an account lineage (the initial deposit).
// Both deltas are measured against an empty holding.
func NewAccount(id, lineageID, userID, bank, currencyCode string, amount decimal.Decimal, rate *Rate, now time.Time) Account {
	amountBase := BaseAmount(amount, rate)
	return Account{
		ID:               id,
		LineageID:        lineageID,
		UserID:           userID,
		Bank:             bank,
		CurrencyCode:     currencyCode,
		Amount:           amount,
		AmountChange:     amount,
		Rate:             cloneRate(rate),
		AmountBase:       amountBase,
		AmountBaseChange: amountBase,
		Version:          1,
		Updated:          now,
	}
}

// WithAmount returns the successor of a holding newAmount, priced with the same rate revision.
func (a Account) WithAmount(id string, newAmount decimal.Decimal, now time.Time) Account {
	amountBase := BaseAmount(newAmount, a.Rate)
	next := a.successor(id, now)
	next.Amount = newAmount
	next.AmountChange = newAmount.Sub(a.Amount)
	next.Rate = cloneRate(a.Rate)
	next.AmountBase = amountBase
	next.AmountBaseChange = amountBase.Sub(a.AmountBase)
	return next
}

// Revalued returns the successor of a priced with rate. The native amount did not move,
// so Amount and AmountChange are carried over unchanged.
func (a Account) Revalued(id string, rate Rate, now time.Time) Account {
	amountBase := BaseAmount(a.Amount, &rate)
	next := a.successor(id, now)
	next.Amount = a.Amount
	next.AmountChange = a.AmountChange
	next.Rate = &rate
	next.AmountBase = amountBase
	next.AmountBaseChange = amountBase.Sub(a.AmountBase)
	return next
}

func (a Account) successor(id string, now time.Time) Account {
	previousID := a.ID
	return Account{
		ID:           id,
		LineageID:    a.LineageID,
		UserID:       a.UserID,
		Bank:         a.Bank,
		CurrencyCode: a.CurrencyCode,
		PreviousID:   &previousID,
		Version:      a.Version + 1,
		Updated:      now,
	}
}

// Validate checks the invariants every persisted account revision must hold.
func (a Account) Validate() error {
	if a.ID == "" || a.LineageID == "" {
		return fmt.Errorf("account revision and lineage IDs are required")
	}
	if a.UserID == "" {
		return fmt.Errorf("account user ID is required")
	}
	if a.Version < 1 {
		return fmt.Errorf("account version must start at 1")
	}
	if (a.Version == 1) != (a.PreviousID == nil) {
		return fmt.Errorf("only the first account revision may omit the previous revision")
	}
	if a.Rate != nil && a.Rate.CurrencyCode != a.CurrencyCode {
		return fmt.Errorf("rate currency %s does not match account currency %s", a.Rate.CurrencyCode, a.CurrencyCode)
	}
	if !a.AmountBase.Equal(BaseAmount(a.Amount, a.Rate)) {
		return fmt.Errorf("base amount is inconsistent with amount and rate")
	}
	return nil
}

// RateID returns the ID of the attached rate revision, or "" when none is attached.
func (a Account) RateID() string {
	if a.Rate == nil {
		return ""
	}
	return a.Rate.ID
}

func cloneRate(r *Rate) *Rate {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
