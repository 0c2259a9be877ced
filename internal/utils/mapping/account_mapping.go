package mapping

import (
	"database/sql"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	m := models.Account{
		AccountID:        d.ID,
		LineageID:        d.LineageID,
		UserID:           d.UserID,
		Bank:             d.Bank,
		CurrencyCode:     d.CurrencyCode,
		Amount:           d.Amount,
		AmountChange:     d.AmountChange,
		AmountBase:       d.AmountBase,
		AmountBaseChange: d.AmountBaseChange,
		Version:          d.Version,
		Updated:          d.Updated,
	}
	if d.Rate != nil {
		m.RateID = sql.NullString{String: d.Rate.ID, Valid: true}
		rate := ToModelRate(*d.Rate)
		m.AttachedRate = &rate
	}
	if d.PreviousID != nil {
		m.PreviousID = sql.NullString{String: *d.PreviousID, Valid: true}
	}
	return m
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	d := domain.Account{
		ID:               m.AccountID,
		LineageID:        m.LineageID,
		UserID:           m.UserID,
		Bank:             m.Bank,
		CurrencyCode:     m.CurrencyCode,
		Amount:           m.Amount,
		AmountChange:     m.AmountChange,
		AmountBase:       m.AmountBase,
		AmountBaseChange: m.AmountBaseChange,
		Version:          m.Version,
		Updated:          m.Updated,
	}
	if m.AttachedRate != nil {
		rate := ToDomainRate(*m.AttachedRate)
		d.Rate = &rate
	}
	if m.PreviousID.Valid {
		previousID := m.PreviousID.String
		d.PreviousID = &previousID
	}
	return d
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
