package dto

import (
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterRateRequest defines the data needed to start tracking a currency's rate.
type RegisterRateRequest struct {
	CurrencyCode string           `json:"currencyCode" binding:"required,len=3,uppercase"`
	Rate         *decimal.Decimal `json:"rate" binding:"required,decimal_positive"`
}

// UpdateRateRequest carries a new rate value for an existing rate lineage.
type UpdateRateRequest struct {
	Rate *decimal.Decimal `json:"rate" binding:"required,decimal_positive"`
}

// RateResponse defines the structure for API responses containing a rate revision.
type RateResponse struct {
	RateID       string          `json:"rateID"`
	LineageID    string          `json:"lineageID"`
	CurrencyCode string          `json:"currencyCode"`
	Rate         decimal.Decimal `json:"rate"`
	Updated      *time.Time      `json:"updated"`
	Version      int             `json:"version"`
}

// ToRateResponse converts a domain.Rate to RateResponse DTO
func ToRateResponse(rate domain.Rate) RateResponse {
	return RateResponse{
		RateID:       rate.ID,
		LineageID:    rate.LineageID,
		CurrencyCode: rate.CurrencyCode,
		Rate:         rate.Rate,
		Updated:      rate.Updated,
		Version:      rate.Version,
	}
}

// ToListRateResponse converts a slice of domain.Rate to a slice of RateResponse DTOs.
func ToListRateResponse(rates []domain.Rate) []RateResponse {
	responses := make([]RateResponse, len(rates))
	for i, rate := range rates {
		responses[i] = ToRateResponse(rate)
	}
	return responses
}

// RateUpdateResponse describes a recorded rate update and the accounts it re-valued.
type RateUpdateResponse struct {
	Rate             RateResponse      `json:"rate"`
	RevaluedAccounts []AccountResponse `json:"revaluedAccounts"`
}

// ToRateUpdateResponse converts a domain.RateUpdateResult to RateUpdateResponse DTO
func ToRateUpdateResponse(result domain.RateUpdateResult) RateUpdateResponse {
	return RateUpdateResponse{
		Rate:             ToRateResponse(result.Rate),
		RevaluedAccounts: ToListAccountResponse(result.Accounts),
	}
}
