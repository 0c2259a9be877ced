package publishers

import (
	"context"

	"github.com/SscSPs/currency_baskets/internal/core/domain"
)

// RateEventPublisher announces committed rate updates to downstream consumers.
type RateEventPublisher interface {
	PublishRateRevalued(ctx context.Context, event domain.RateRevaluedEvent) error
}
