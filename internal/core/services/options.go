package services

import (
	"log/slog"

	"github.com/SscSPs/currency_baskets/internal/platform/clock"
)

// ServiceOption is a functional option for configuring the common parts of a service
type ServiceOption func(*BaseService)

// WithLogger sets the logger used when no request-scoped logger is available
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *BaseService) {
		s.Logger = logger
	}
}

// WithClock sets the clock used for revision timestamps and view cutoffs
func WithClock(c clock.Clock) ServiceOption {
	return func(s *BaseService) {
		s.Clock = c
	}
}

func applyOptions(base *BaseService, options []ServiceOption) {
	for _, option := range options {
		option(base)
	}
}
