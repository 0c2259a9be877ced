package dto

import (
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenAccountRequest defines the data needed to record an initial deposit.
type OpenAccountRequest struct {
	UserID       string           `json:"userID" binding:"required"`
	Bank         string           `json:"bank" binding:"required"`
	CurrencyCode string           `json:"currencyCode" binding:"required,len=3,uppercase"`
	Amount       *decimal.Decimal `json:"amount" binding:"required"` // Any sign is accepted
}

// UpdateAmountRequest carries the new absolute amount of an account.
type UpdateAmountRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// AccountResponse defines the data returned for an account revision.
type AccountResponse struct {
	AccountID        string          `json:"accountID"`
	LineageID        string          `json:"lineageID"`
	UserID           string          `json:"userID"`
	Bank             string          `json:"bank"`
	CurrencyCode     string          `json:"currencyCode"`
	Amount           decimal.Decimal `json:"amount"`
	AmountChange     decimal.Decimal `json:"amountChange"`
	RateID           *string         `json:"rateID"`
	Rate             *string         `json:"rate"` // Rate value in effect, nil when untracked
	AmountBase       decimal.Decimal `json:"amountBase"`
	AmountBaseChange decimal.Decimal `json:"amountBaseChange"`
	PreviousID       *string         `json:"previousID"`
	Version          int             `json:"version"`
	Updated          time.Time       `json:"updated"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc domain.Account) AccountResponse {
	resp := AccountResponse{
		AccountID:        acc.ID,
		LineageID:        acc.LineageID,
		UserID:           acc.UserID,
		Bank:             acc.Bank,
		CurrencyCode:     acc.CurrencyCode,
		Amount:           acc.Amount,
		AmountChange:     acc.AmountChange,
		AmountBase:       acc.AmountBase,
		AmountBaseChange: acc.AmountBaseChange,
		PreviousID:       acc.PreviousID,
		Version:          acc.Version,
		Updated:          acc.Updated,
	}
	if acc.Rate != nil {
		rateID := acc.Rate.ID
		rate := acc.Rate.Rate.String()
		resp.RateID = &rateID
		resp.Rate = &rate
	}
	return resp
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs.
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		responses[i] = ToAccountResponse(acc)
	}
	return responses
}

// ListRevisionsParams defines the query parameters for paging through a lineage's history.
type ListRevisionsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ListAccountRevisionsResponse is a page of account revisions, newest first.
type ListAccountRevisionsResponse struct {
	Revisions []AccountResponse `json:"revisions"`
	NextToken *string           `json:"nextToken,omitempty"`
}
