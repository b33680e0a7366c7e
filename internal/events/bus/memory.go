package bus

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

// ErrBusClosed is returned by operations on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// MemoryEventBus implements EventBus using in-process goroutines.
type MemoryEventBus struct {
	subscriptions []*memorySubscription
	queues        map[string]*queueGroup
	mu            sync.RWMutex
	logger        *logger.Logger
	closed        bool
}

type memorySubscription struct {
	bus     *MemoryEventBus
	subject string
	pattern *regexp.Regexp // nil when subject has no wildcards
	handler EventHandler
	queue   string // empty for regular subscriptions
	active  bool
	mu      sync.Mutex

	// pending is drained in order by a single worker, so one subscriber
	// sees events in publish order the way a NATS subscription does.
	pending []delivery
	wake    chan struct{}
	done    chan struct{}
	stop    sync.Once
}

type delivery struct {
	ctx     context.Context
	subject string
	event   *Event
}

// queueGroup round-robins deliveries between its members
type queueGroup struct {
	subscribers []*memorySubscription
	nextIndex   int
	mu          sync.Mutex
}

func (s *memorySubscription) Unsubscribe() error {
	s.deactivate()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	s.bus.subscriptions = removeSub(s.bus.subscriptions, s)
	if s.queue != "" {
		if qg, ok := s.bus.queues[queueKey(s.queue, s.subject)]; ok {
			qg.mu.Lock()
			qg.subscribers = removeSub(qg.subscribers, s)
			qg.mu.Unlock()
		}
	}
	return nil
}

func (s *memorySubscription) deactivate() {
	s.mu.Lock()
	s.active = false
	s.pending = nil
	s.mu.Unlock()
	s.stop.Do(func() { close(s.done) })
}

// enqueue never blocks the publisher.
func (s *memorySubscription) enqueue(d delivery) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, d)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *memorySubscription) next() (delivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || len(s.pending) == 0 {
		return delivery{}, false
	}
	d := s.pending[0]
	s.pending[0] = delivery{}
	s.pending = s.pending[1:]
	return d, true
}

func (s *memorySubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			d, ok := s.next()
			if !ok {
				break
			}
			s.bus.deliver(d.ctx, s, d.subject, d.event)
		}
	}
}

func (s *memorySubscription) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// NewMemoryEventBus creates a new in-memory event bus
func NewMemoryEventBus(log *logger.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		queues: make(map[string]*queueGroup),
		logger: log.WithFields(zap.String("component", "memory-bus")),
	}
}

// Publish delivers an event to every matching subscriber. Each subscription
// runs its handler on its own worker in publish order, so Publish never
// blocks on a slow handler.
func (b *MemoryEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	delivered := make(map[string]bool)
	for _, sub := range b.subscriptions {
		if !sub.IsValid() || !matches(subject, sub.subject, sub.pattern) {
			continue
		}

		if sub.queue != "" {
			key := queueKey(sub.queue, sub.subject)
			if !delivered[key] {
				delivered[key] = true
				b.publishToQueue(ctx, key, subject, event)
			}
			continue
		}

		sub.enqueue(delivery{ctx: ctx, subject: subject, event: event})
	}

	b.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	return nil
}

func (b *MemoryEventBus) deliver(ctx context.Context, sub *memorySubscription, subject string, event *Event) {
	if err := sub.handler(ctx, event); err != nil {
		b.logger.Error("Event handler error",
			zap.String("subject", subject),
			zap.String("queue", sub.queue),
			zap.Error(err))
	}
}

// Subscribe creates a subscription to a subject pattern
func (b *MemoryEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	return b.subscribe(subject, "", handler)
}

// QueueSubscribe creates a queue subscription.
// Only one subscriber in the queue group receives each message.
func (b *MemoryEventBus) QueueSubscribe(subject, queue string, handler EventHandler) (Subscription, error) {
	return b.subscribe(subject, queue, handler)
}

func (b *MemoryEventBus) subscribe(subject, queue string, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &memorySubscription{
		bus:     b,
		subject: subject,
		pattern: compilePattern(subject),
		handler: handler,
		queue:   queue,
		active:  true,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	b.subscriptions = append(b.subscriptions, sub)
	go sub.run()

	if queue != "" {
		key := queueKey(queue, subject)
		qg, ok := b.queues[key]
		if !ok {
			qg = &queueGroup{}
			b.queues[key] = qg
		}
		qg.subscribers = append(qg.subscribers, sub)
	}

	b.logger.Debug("Subscribed to subject",
		zap.String("subject", subject),
		zap.String("queue", queue))
	return sub, nil
}

// Request publishes event with a private reply subject and waits for the
// first event published to it.
func (b *MemoryEventBus) Request(ctx context.Context, subject string, event *Event, timeout time.Duration) (*Event, error) {
	replySubject := fmt.Sprintf("_INBOX.%s", event.ID)
	responses := make(chan *Event, 1)

	sub, err := b.Subscribe(replySubject, func(ctx context.Context, e *Event) error {
		select {
		case responses <- e:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reply subscription: %w", err)
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	req := *event
	req.Data = withReply(event.Data, replySubject)
	if err := b.Publish(ctx, subject, &req); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case response := <-responses:
		return response, nil
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request to %s timed out after %v: %w", subject, timeout, context.DeadlineExceeded)
	}
}

// Close deactivates every subscription and rejects further use.
func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, sub := range b.subscriptions {
		sub.deactivate()
	}
	b.subscriptions = nil
	b.queues = make(map[string]*queueGroup)

	b.logger.Info("Memory event bus closed")
}

// IsConnected returns true until Close is called
func (b *MemoryEventBus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

func (b *MemoryEventBus) publishToQueue(ctx context.Context, key, subject string, event *Event) {
	qg, ok := b.queues[key]
	if !ok {
		return
	}

	qg.mu.Lock()
	defer qg.mu.Unlock()

	n := len(qg.subscribers)
	for i := 0; i < n; i++ {
		idx := (qg.nextIndex + i) % n
		sub := qg.subscribers[idx]
		if !sub.IsValid() {
			continue
		}
		qg.nextIndex = (idx + 1) % n
		sub.enqueue(delivery{ctx: ctx, subject: subject, event: event})
		return
	}
}

// matches checks a subject against a pattern.
// Supports NATS-style wildcards: * (single token) and > (remaining tokens).
func matches(subject, pattern string, regex *regexp.Regexp) bool {
	if regex == nil {
		return subject == pattern
	}
	return regex.MatchString(subject)
}

// compilePattern converts a NATS-style pattern to a regex, or nil without wildcards
func compilePattern(pattern string) *regexp.Regexp {
	if !strings.Contains(pattern, "*") && !strings.Contains(pattern, ">") {
		return nil
	}

	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `[^.]+`)
	escaped = strings.ReplaceAll(escaped, `>`, `.+`)

	regex, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil
	}
	return regex
}

func queueKey(queue, subject string) string {
	return queue + ":" + subject
}

func removeSub(subs []*memorySubscription, target *memorySubscription) []*memorySubscription {
	for i, sub := range subs {
		if sub == target {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
