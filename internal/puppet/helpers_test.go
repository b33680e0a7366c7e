package puppet

import (
	"context"
	"sync"
	"testing"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/sidecar"
)

type fakeHandle struct {
	mu      sync.Mutex
	methods map[string]sidecar.Method
	lookups int

	attachErr   error
	detachErr   error
	attachGate  chan struct{}
	detachGate  chan struct{}
	attachCalls int
	detachCalls int
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{methods: make(map[string]sidecar.Method)}
}

func (h *fakeHandle) TargetProcess() string { return "WeChat.exe" }

func (h *fakeHandle) Lookup(name string) (sidecar.Method, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lookups++
	m, ok := h.methods[name]
	return m, ok
}

func (h *fakeHandle) Attach(context.Context) error {
	h.mu.Lock()
	h.attachCalls++
	gate := h.attachGate
	err := h.attachErr
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (h *fakeHandle) Detach(context.Context) error {
	h.mu.Lock()
	h.detachCalls++
	gate := h.detachGate
	err := h.detachErr
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (h *fakeHandle) define(name string, m sidecar.Method) {
	h.mu.Lock()
	h.methods[name] = m
	h.mu.Unlock()
}

// returning defines name to record its arguments and return result.
func (h *fakeHandle) returning(name string, result interface{}) *[]interface{} {
	var got []interface{}
	h.define(name, func(_ context.Context, args ...interface{}) (interface{}, error) {
		got = args
		return result, nil
	})
	return &got
}

func (h *fakeHandle) counts() (attach, detach, lookups int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attachCalls, h.detachCalls, h.lookups
}

type emitted struct {
	Type string
	Data map[string]interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) Emit(_ context.Context, eventType string, data map[string]interface{}) {
	e.mu.Lock()
	e.events = append(e.events, emitted{Type: eventType, Data: data})
	e.mu.Unlock()
}

func (e *recordingEmitter) ofType(eventType string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emitted
	for _, ev := range e.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func newTestAdapter(t *testing.T, h sidecar.Handle, hooks ...Hook) (*Adapter, *recordingEmitter) {
	t.Helper()
	em := &recordingEmitter{}
	return New(h, Options{Name: "test", Emitter: em, Hooks: hooks, Logger: logger.NewNop()}), em
}

func ptr[T any](v T) *T { return &v }
