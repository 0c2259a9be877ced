package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var t0 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// MockRateEventPublisher is a mock type for the RateEventPublisher interface
type MockRateEventPublisher struct {
	mock.Mock
}

func (m *MockRateEventPublisher) PublishRateRevalued(ctx context.Context, event domain.RateRevaluedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
