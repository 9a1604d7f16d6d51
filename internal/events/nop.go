package events

import (
	"context"

	"github.com/Veraticus/smarttrack/internal/model"
)

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

// PublishTransactionCreated does nothing.
func (NopPublisher) PublishTransactionCreated(context.Context, model.Transaction) error {
	return nil
}
