package automation

import (
	"context"

	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
)

// EventPublisher broadcasts presence changes. Failures are logged only.
type EventPublisher interface {
	PublishPresence(ctx context.Context, member *domain.Member, snapshot *domain.Snapshot, transition domain.Transition) error
}

// NopPublisher discards every change.
type NopPublisher struct{}

// PublishPresence implements EventPublisher.
func (NopPublisher) PublishPresence(context.Context, *domain.Member, *domain.Snapshot, domain.Transition) error {
	return nil
}
