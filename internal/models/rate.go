package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Rate is one row of the rates table.
type Rate struct {
	RateID       string          `db:"rate_id"`
	LineageID    string          `db:"lineage_id"`
	CurrencyCode string          `db:"currency_code"`
	Rate         decimal.Decimal `db:"rate"`
	Updated      sql.NullTime    `db:"updated"` // Null for legacy rows
	Version      int             `db:"version"`
}

// JoinedRate holds the rate columns of a LEFT JOIN; every field is null when the account has no rate.
type JoinedRate struct {
	LineageID    sql.NullString
	CurrencyCode sql.NullString
	Rate         decimal.NullDecimal
	Updated      sql.NullTime
	Version      sql.NullInt32
}

// Resolve returns the joined rate row, or nil when rateID is null.
func (j JoinedRate) Resolve(rateID sql.NullString) *Rate {
	if !rateID.Valid {
		return nil
	}
	return &Rate{
		RateID:       rateID.String,
		LineageID:    j.LineageID.String,
		CurrencyCode: j.CurrencyCode.String,
		Rate:         j.Rate.Decimal,
		Updated:      j.Updated,
		Version:      int(j.Version.Int32),
	}
}
