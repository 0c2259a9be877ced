// Package events holds the rate event publishers that do not need a broker.
package events

import (
	"context"
	"log/slog"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
	"github.com/SscSPs/currency_baskets/internal/core/ports/publishers"
	"github.com/SscSPs/currency_baskets/internal/middleware"
)

// LoggingPublisher writes rate events to the log instead of a broker. Used when AMQP is not configured.
type LoggingPublisher struct{}

var _ publishers.RateEventPublisher = LoggingPublisher{}

func (LoggingPublisher) PublishRateRevalued(ctx context.Context, event domain.RateRevaluedEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Rate revalued",
		slog.String("rate_id", event.RateID),
		slog.String("currency_code", event.CurrencyCode),
		slog.Int("version", event.Version),
		slog.Int("revalued_accounts", event.RevaluedAccounts))
	return nil
}
