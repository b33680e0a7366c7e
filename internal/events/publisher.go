package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events/bus"
)

// Publisher publishes a puppet's events on its subjects.
type Publisher struct {
	bus        bus.EventBus
	puppetName string
	logger     *logger.Logger
}

// NewPublisher creates a publisher for the named puppet.
func NewPublisher(eventBus bus.EventBus, puppetName string, log *logger.Logger) *Publisher {
	return &Publisher{
		bus:        eventBus,
		puppetName: puppetName,
		logger:     log.WithFields(zap.String("component", "event-publisher")),
	}
}

// Emit publishes eventType with data. A publish failure is logged and
// otherwise dropped: the event channel is best effort.
func (p *Publisher) Emit(ctx context.Context, eventType string, data map[string]interface{}) {
	subject := BuildPuppetSubject(p.puppetName, eventType)
	event := bus.NewEvent(eventType, p.puppetName, data)
	if err := p.bus.Publish(ctx, subject, event); err != nil {
		p.logger.Warn("failed to publish puppet event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}
