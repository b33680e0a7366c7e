package sidecar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events/bus"
)

const defaultCallTimeout = 30 * time.Second

// RemoteError is an error reported by the agent for one call.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// Bridge exposes the methods an out-of-process agent announces on the bus
// as methods of a Body. Each announcement replaces the previous set.
type Bridge struct {
	bus     bus.EventBus
	body    *Body
	session string
	timeout time.Duration
	logger  *logger.Logger

	mu        sync.Mutex
	sub       bus.Subscription
	announced map[string]struct{}
}

// NewBridge creates a bridge feeding body from the agent session.
func NewBridge(eventBus bus.EventBus, body *Body, session string, timeout time.Duration, log *logger.Logger) *Bridge {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	return &Bridge{
		bus:       eventBus,
		body:      body,
		session:   session,
		timeout:   timeout,
		logger:    log.WithFields(zap.String("component", "sidecar-bridge"), zap.String("session", session)),
		announced: make(map[string]struct{}),
	}
}

// Start subscribes to the agent's method announcements.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return nil
	}
	subject := events.BuildSidecarMethodsSubject(b.session)
	sub, err := b.bus.Subscribe(subject, b.handleAnnouncement)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	b.sub = sub
	b.logger.Info("sidecar bridge started", zap.String("subject", subject))
	return nil
}

// Close unsubscribes and removes every announced method from the body.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name := range b.announced {
		b.body.Undefine(name)
	}
	b.announced = make(map[string]struct{})
	if b.sub == nil {
		return nil
	}
	err := b.sub.Unsubscribe()
	b.sub = nil
	return err
}

// Announced returns the number of methods currently bridged.
func (b *Bridge) Announced() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.announced)
}

func (b *Bridge) handleAnnouncement(_ context.Context, event *bus.Event) error {
	names, err := methodNames(event.Data["methods"])
	if err != nil {
		b.logger.Warn("ignoring malformed method announcement", zap.Error(err))
		return err
	}

	next := make(map[string]struct{}, len(names))
	for _, name := range names {
		next[name] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for name := range b.announced {
		if _, ok := next[name]; !ok {
			b.body.Undefine(name)
		}
	}
	for name := range next {
		if _, ok := b.announced[name]; !ok {
			b.body.Define(name, b.remoteMethod(name))
		}
	}
	b.announced = next
	b.logger.Debug("method announcement applied", zap.Int("methods", len(next)))
	return nil
}

func (b *Bridge) remoteMethod(name string) Method {
	subject := events.BuildSidecarCallSubject(b.session)
	return func(ctx context.Context, args ...interface{}) (interface{}, error) {
		if args == nil {
			args = []interface{}{}
		}
		req := bus.NewEvent(events.SidecarCall, "puppet", map[string]interface{}{
			"method": name,
			"args":   args,
		})
		resp, err := b.bus.Request(ctx, subject, req, b.timeout)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", name, err)
		}
		if resp == nil || resp.Data == nil {
			return nil, nil
		}
		if msg, ok := resp.Data["error"]; ok && msg != nil {
			return nil, &RemoteError{Method: name, Message: fmt.Sprint(msg)}
		}
		return resp.Data["result"], nil
	}
}

// methodNames accepts the list as sent in-process or decoded from JSON.
func methodNames(v interface{}) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []interface{}:
		names := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("method name %v is %T, not string", item, item)
			}
			names = append(names, s)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("methods is %T, not a list", v)
	}
}
