package mapping

import (
	"database/sql"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/models"
)

// ToModelRate converts a domain Rate to a model Rate
func ToModelRate(d domain.Rate) models.Rate {
	m := models.Rate{
		RateID:       d.ID,
		LineageID:    d.LineageID,
		CurrencyCode: d.CurrencyCode,
		Rate:         d.Rate,
		Version:      d.Version,
	}
	if d.Updated != nil {
		m.Updated = sql.NullTime{Time: *d.Updated, Valid: true}
	}
	return m
}

// ToDomainRate converts a model Rate to a domain Rate
func ToDomainRate(m models.Rate) domain.Rate {
	d := domain.Rate{
		ID:           m.RateID,
		LineageID:    m.LineageID,
		CurrencyCode: m.CurrencyCode,
		Rate:         m.Rate,
		Version:      m.Version,
	}
	if m.Updated.Valid {
		updated := m.Updated.Time
		d.Updated = &updated
	}
	return d
}

// ToDomainRateSlice converts a slice of model Rates to a slice of domain Rates
func ToDomainRateSlice(ms []models.Rate) []domain.Rate {
	ds := make([]domain.Rate, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainRate(m)
	}
	return ds
}
