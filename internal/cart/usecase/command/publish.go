package command

import (
	"context"

	"github.com/almahra/cart-engine/kafka"
	"github.com/almahra/cart-engine/pkg/logger"
)

// publishEvent publishes a cart event best effort: a nil publisher or a
// publish failure never fails the command.
func publishEvent(ctx context.Context, publisher *kafka.Publisher, event kafka.CartEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishCartEvent(ctx, event); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("event_type", event.EventType).
			Msg("Failed to publish cart event")
	}
}
