package sidecar

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events/bus"
)

// Agent is the agent side of a Bridge: it serves the methods of a registry
// over the bus and announces their names.
type Agent struct {
	bus      bus.EventBus
	registry *Body
	session  string
	logger   *logger.Logger

	mu  sync.Mutex
	sub bus.Subscription
}

// NewAgent creates an agent serving registry's methods for session.
func NewAgent(eventBus bus.EventBus, registry *Body, session string, log *logger.Logger) *Agent {
	if log == nil {
		log = logger.Default()
	}
	return &Agent{
		bus:      eventBus,
		registry: registry,
		session:  session,
		logger:   log.WithFields(zap.String("component", "sidecar-agent"), zap.String("session", session)),
	}
}

// Serve starts answering calls and announces the current method set.
func (a *Agent) Serve(ctx context.Context) error {
	a.mu.Lock()
	if a.sub == nil {
		subject := events.BuildSidecarCallSubject(a.session)
		sub, err := a.bus.QueueSubscribe(subject, "sidecar-agent."+a.session, a.handleCall)
		if err != nil {
			a.mu.Unlock()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		a.sub = sub
	}
	a.mu.Unlock()
	return a.Announce(ctx)
}

// Announce publishes the registry's current method names.
func (a *Agent) Announce(ctx context.Context) error {
	event := bus.NewEvent(events.SidecarMethods, "agent", map[string]interface{}{
		"methods": a.registry.Methods(),
	})
	return a.bus.Publish(ctx, events.BuildSidecarMethodsSubject(a.session), event)
}

// Close stops answering calls.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sub == nil {
		return nil
	}
	err := a.sub.Unsubscribe()
	a.sub = nil
	return err
}

func (a *Agent) handleCall(ctx context.Context, event *bus.Event) error {
	reply := bus.ReplySubject(event)
	if reply == "" {
		return nil
	}

	name, _ := event.Data["method"].(string)
	var args []interface{}
	switch v := event.Data["args"].(type) {
	case []interface{}:
		args = v
	case nil:
	default:
		args = []interface{}{v}
	}

	data := map[string]interface{}{}
	if m, ok := a.registry.Lookup(name); ok && m != nil {
		result, err := m(ctx, args...)
		if err != nil {
			data["error"] = err.Error()
		} else {
			data["result"] = result
		}
	} else {
		data["error"] = fmt.Sprintf("method %q not implemented", name)
	}

	if err := a.bus.Publish(ctx, reply, bus.NewEvent(events.SidecarResult, "agent", data)); err != nil {
		a.logger.Warn("failed to publish call result", zap.String("method", name), zap.Error(err))
		return err
	}
	return nil
}
