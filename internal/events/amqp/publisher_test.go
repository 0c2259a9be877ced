package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func testEvent() domain.RateRevaluedEvent {
	return domain.RateRevaluedEvent{
		RateID:           "rate-2",
		LineageID:        "rl-usd",
		CurrencyCode:     "USD",
		Rate:             decimal.RequireFromString("2.0"),
		Version:          2,
		RevaluedAccounts: 3,
		OccurredAt:       time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublisher_PublishRateRevalued(t *testing.T) {
	ch := new(mockChannel)
	publisher := newPublisherWithChannel(ch, "baskets", "rates.revalued")

	var sent amqp091.Publishing
	ch.On("PublishWithContext", mock.Anything, "baskets", "rates.revalued", false, false, mock.AnythingOfType("amqp091.Publishing")).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp091.Publishing) }).
		Return(nil).Once()

	err := publisher.PublishRateRevalued(context.Background(), testEvent())

	require.NoError(t, err)
	ch.AssertExpectations(t)
	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp091.Persistent, sent.DeliveryMode)
	assert.Equal(t, RateRevaluedType, sent.Type)
	assert.Equal(t, "rate-2", sent.MessageId)

	var decoded domain.RateRevaluedEvent
	require.NoError(t, json.Unmarshal(sent.Body, &decoded))
	assert.Equal(t, "USD", decoded.CurrencyCode)
	assert.Equal(t, 3, decoded.RevaluedAccounts)
	assert.True(t, decoded.Rate.Equal(decimal.NewFromInt(2)))
}

func TestPublisher_PublishError(t *testing.T) {
	ch := new(mockChannel)
	publisher := newPublisherWithChannel(ch, "baskets", "rates.revalued")
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed")).Once()

	err := publisher.PublishRateRevalued(context.Background(), testEvent())

	assert.ErrorContains(t, err, "channel closed")
}

func TestPublisher_Close(t *testing.T) {
	ch := new(mockChannel)
	ch.On("Close").Return(nil).Once()

	assert.NoError(t, newPublisherWithChannel(ch, "x", "y").Close())
	ch.AssertExpectations(t)
}
