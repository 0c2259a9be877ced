package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is one immutable revision of a currency's exchange rate to the base currency.
// Revisions of the same currency share a LineageID and are ordered by Version.
type Rate struct {
	ID           string          `json:"id"`           // Revision ID (unique per row)
	LineageID    string          `json:"lineageID"`    // Stable across revisions
	CurrencyCode string          `json:"currencyCode"` // e.g. "USD"
	Rate         decimal.Decimal `json:"rate"`         // Base units per one unit of CurrencyCode
	Updated      *time.Time      `json:"updated"`      // Nil only for legacy rows
	Version      int             `json:"version"`      // 1..N within the lineage
}

// NewRate builds the first revision of a rate lineage.
func NewRate(id, lineageID, currencyCode string, rate decimal.Decimal, now time.Time) Rate {
	return Rate{
		ID:           id,
		LineageID:    lineageID,
		CurrencyCode: currencyCode,
		Rate:         rate,
		Updated:      &now,
		Version:      1,
	}
}

// NextRevision returns the successor of r carrying the new rate value.
func (r Rate) NextRevision(id string, rate decimal.Decimal, now time.Time) Rate {
	return Rate{
		ID:           id,
		LineageID:    r.LineageID,
		CurrencyCode: r.CurrencyCode,
		Rate:         rate,
		Updated:      &now,
		Version:      r.Version + 1,
	}
}

// Validate checks the invariants every persisted rate revision must hold.
func (r Rate) Validate() error {
	if r.ID == "" || r.LineageID == "" {
		return fmt.Errorf("rate revision and lineage IDs are required")
	}
	if len(r.CurrencyCode) != 3 {
		return fmt.Errorf("currency code must be 3 letters")
	}
	if !r.Rate.IsPositive() {
		return fmt.Errorf("rate must be positive")
	}
	if r.Version < 1 {
		return fmt.Errorf("rate version must start at 1")
	}
	return nil
}

// RateUpdateResult bundles a new rate revision with the account revisions it re-valued.
type RateUpdateResult struct {
	Rate     Rate      `json:"rate"`
	Accounts []Account `json:"accounts"`
}

// RateRevaluedEvent is published after a rate revision and its cascade have been committed.
type RateRevaluedEvent struct {
	RateID           string          `json:"rateID"`
	LineageID        string          `json:"lineageID"`
	CurrencyCode     string          `json:"currencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	Version          int             `json:"version"`
	RevaluedAccounts int             `json:"revaluedAccounts"`
	OccurredAt       time.Time       `json:"occurredAt"`
}

// NewRateRevaluedEvent describes the outcome of a committed rate update.
func NewRateRevaluedEvent(result RateUpdateResult, occurredAt time.Time) RateRevaluedEvent {
	return RateRevaluedEvent{
		RateID:           result.Rate.ID,
		LineageID:        result.Rate.LineageID,
		CurrencyCode:     result.Rate.CurrencyCode,
		Rate:             result.Rate.Rate,
		Version:          result.Rate.Version,
		RevaluedAccounts: len(result.Accounts),
		OccurredAt:       occurredAt,
	}
}
