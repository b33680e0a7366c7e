package bus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      "error",
		Format:     "console",
		OutputPath: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return log
}

func TestNewMemoryEventBus(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	if bus == nil {
		t.Fatal("Expected non-nil bus")
	}
	if !bus.IsConnected() {
		t.Error("Expected bus to be connected")
	}
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	received := make(chan *Event, 1)
	sub, err := bus.Subscribe("puppet.sidecar.error", func(ctx context.Context, event *Event) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	event := NewEvent("error", "test", map[string]interface{}{"key": "value"})
	if err := bus.Publish(context.Background(), "puppet.sidecar.error", event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case e := <-received:
		if e.ID != event.ID {
			t.Errorf("Expected event ID %s, got %s", event.ID, e.ID)
		}
		if e.Data["key"] != "value" {
			t.Errorf("Expected data key=value, got %v", e.Data["key"])
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestMemoryEventBus_Wildcards(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"puppet.sidecar.*", "puppet.sidecar.error", true},
		{"puppet.sidecar.*", "puppet.sidecar.error.extra", false},
		{"puppet.>", "puppet.sidecar.state", true},
		{"puppet.>", "puppet", false},
		{"puppet.sidecar.error", "puppet.sidecar.error", true},
		{"puppet.sidecar.error", "puppet.sidecar.state", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.subject, func(t *testing.T) {
			got := matches(tt.subject, tt.pattern, compilePattern(tt.pattern))
			if got != tt.want {
				t.Errorf("matches(%q, %q) = %v, want %v", tt.subject, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	var count int32
	sub, err := bus.Subscribe("test.unsub", func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if sub.IsValid() {
		t.Error("Expected subscription to be invalid after Unsubscribe")
	}

	_ = bus.Publish(context.Background(), "test.unsub", NewEvent("t", "s", nil))
	time.Sleep(50 * time.Millisecond)

	if atomic.LoadInt32(&count) != 0 {
		t.Errorf("Expected no deliveries after Unsubscribe, got %d", count)
	}
}

func TestMemoryEventBus_QueueSubscribe(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	var count int32
	for i := 0; i < 3; i++ {
		if _, err := bus.QueueSubscribe("test.queue", "workers", func(ctx context.Context, event *Event) error {
			atomic.AddInt32(&count, 1)
			return nil
		}); err != nil {
			t.Fatalf("QueueSubscribe %d failed: %v", i, err)
		}
	}

	for i := 0; i < 4; i++ {
		_ = bus.Publish(context.Background(), "test.queue", NewEvent("t", "s", nil))
	}
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&count); got != 4 {
		t.Errorf("Expected exactly one delivery per event (4), got %d", got)
	}
}

func TestMemoryEventBus_Request(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	_, err := bus.Subscribe("test.echo", func(ctx context.Context, event *Event) error {
		reply := ReplySubject(event)
		if reply == "" {
			return errors.New("missing reply subject")
		}
		return bus.Publish(ctx, reply, NewEvent("echo.reply", "responder", map[string]interface{}{
			"echo": event.Data["say"],
		}))
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	resp, err := bus.Request(context.Background(), "test.echo",
		NewEvent("echo", "test", map[string]interface{}{"say": "hi"}), time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.Data["echo"] != "hi" {
		t.Errorf("Expected echo=hi, got %v", resp.Data["echo"])
	}
}

func TestMemoryEventBus_RequestTimeout(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	_, err := bus.Request(context.Background(), "nobody.listens", NewEvent("t", "s", nil), 20*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
}

func TestMemoryEventBus_Closed(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	bus.Close()

	if bus.IsConnected() {
		t.Error("Expected bus to be disconnected after Close")
	}
	if err := bus.Publish(context.Background(), "x", NewEvent("t", "s", nil)); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Expected ErrBusClosed from Publish, got %v", err)
	}
	if _, err := bus.Subscribe("x", func(context.Context, *Event) error { return nil }); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Expected ErrBusClosed from Subscribe, got %v", err)
	}
}

func TestMemoryEventBus_DeliversInPublishOrder(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	const n = 200
	got := make(chan int, n)
	if _, err := bus.Subscribe("test.order.*", func(ctx context.Context, event *Event) error {
		got <- event.Data["seq"].(int)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < n; i++ {
		_ = bus.Publish(context.Background(), "test.order.x", NewEvent("t", "s", map[string]interface{}{"seq": i}))
	}

	for i := 0; i < n; i++ {
		select {
		case seq := <-got:
			if seq != i {
				t.Fatalf("Expected event %d, got %d", i, seq)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for event %d", i)
		}
	}
}

func TestMemoryEventBus_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	release := make(chan struct{})
	defer close(release)
	if _, err := bus.Subscribe("test.slow", func(ctx context.Context, event *Event) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	fast := make(chan struct{}, 2)
	if _, err := bus.Subscribe("test.slow", func(ctx context.Context, event *Event) error {
		fast <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := bus.Publish(context.Background(), "test.slow", NewEvent("t", "s", nil)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		select {
		case <-fast:
		case <-time.After(time.Second):
			t.Fatal("Fast subscriber blocked by slow one")
		}
	}
}
