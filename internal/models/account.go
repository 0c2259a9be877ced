package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Account is one row of the accounts table. AttachedRate is filled from the joined rate row.
type Account struct {
	AccountID        string          `db:"account_id"`
	LineageID        string          `db:"lineage_id"`
	UserID           string          `db:"user_id"`
	Bank             string          `db:"bank"`
	CurrencyCode     string          `db:"currency_code"`
	Amount           decimal.Decimal `db:"amount"`
	AmountChange     decimal.Decimal `db:"amount_change"`
	RateID           sql.NullString  `db:"rate_id"`
	AmountBase       decimal.Decimal `db:"amount_base"`
	AmountBaseChange decimal.Decimal `db:"amount_base_change"`
	PreviousID       sql.NullString  `db:"previous_id"`
	Version          int             `db:"version"`
	Updated          time.Time       `db:"updated"`

	AttachedRate *Rate `db:"-"`
}
