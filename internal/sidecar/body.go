// Package sidecar provides the agent handle injected into the instrumented
// chat client, the process injector that attaches it, and the capability
// proxy the puppet resolves operations through.
package sidecar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

var (
	// ErrAlreadyAttached is returned by Attach on an attached body.
	ErrAlreadyAttached = errors.New("sidecar already attached")
	// ErrNoTarget is returned when no target process is configured.
	ErrNoTarget = errors.New("sidecar has no target process")
)

// Method is an operation exposed by the injected agent. Arguments and result
// are whatever the agent speaks; the puppet interprets neither.
type Method func(ctx context.Context, args ...interface{}) (interface{}, error)

// Handle is the injected instrumentation object as seen by the puppet.
type Handle interface {
	// TargetProcess describes the instrumented process. Diagnostic only.
	TargetProcess() string
	// Lookup returns the method currently registered under name.
	Lookup(name string) (Method, bool)
	// Attach injects the agent into the target process.
	Attach(ctx context.Context) error
	// Detach removes the agent from the target process.
	Detach(ctx context.Context) error
}

// Body is a Handle backed by a mutable method registry. Methods can be
// defined and removed at any time, including while attached.
type Body struct {
	target   string
	injector Injector
	logger   *logger.Logger

	mu      sync.RWMutex
	methods map[string]Method

	attachMu sync.Mutex
	session  Session
}

// Option configures a Body.
type Option func(*Body)

// WithInjector sets the injector used by Attach. Defaults to an ExecInjector.
func WithInjector(injector Injector) Option {
	return func(b *Body) { b.injector = injector }
}

// WithLogger sets the body's logger.
func WithLogger(log *logger.Logger) Option {
	return func(b *Body) { b.logger = log }
}

// WithMethods registers an initial set of methods.
func WithMethods(methods map[string]Method) Option {
	return func(b *Body) {
		for name, m := range methods {
			b.methods[name] = m
		}
	}
}

// NewBody creates a body instrumenting target.
func NewBody(target string, opts ...Option) *Body {
	b := &Body{
		target:  target,
		methods: make(map[string]Method),
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.injector == nil {
		b.injector = &ExecInjector{Logger: b.logger}
	}
	b.logger = b.logger.WithTarget(target).WithFields(zap.String("component", "sidecar"))
	return b
}

// TargetProcess returns the instrumented process descriptor.
func (b *Body) TargetProcess() string {
	return b.target
}

// Define registers m under name, replacing an existing method.
func (b *Body) Define(name string, m Method) {
	if m == nil {
		b.Undefine(name)
		return
	}
	b.mu.Lock()
	b.methods[name] = m
	b.mu.Unlock()
	b.logger.Debug("method defined", zap.String("method", name))
}

// Undefine removes the method registered under name.
func (b *Body) Undefine(name string) {
	b.mu.Lock()
	_, ok := b.methods[name]
	delete(b.methods, name)
	b.mu.Unlock()
	if ok {
		b.logger.Debug("method removed", zap.String("method", name))
	}
}

// Lookup implements Handle.
func (b *Body) Lookup(name string) (Method, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.methods[name]
	return m, ok
}

// Methods returns the sorted names of all registered methods.
func (b *Body) Methods() []string {
	b.mu.RLock()
	names := make([]string, 0, len(b.methods))
	for name := range b.methods {
		names = append(names, name)
	}
	b.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Attach injects into the target process.
func (b *Body) Attach(ctx context.Context) error {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()

	if b.session != nil {
		return ErrAlreadyAttached
	}

	session, err := b.injector.Inject(ctx, b.target)
	if err != nil {
		return fmt.Errorf("attach %s: %w", b.target, err)
	}
	b.session = session
	b.logger.Info("sidecar attached", zap.Int("pid", session.PID()))
	return nil
}

// Detach removes the agent from the target process. Detaching a detached
// body is a no-op. The body counts as detached afterwards even when the
// session reports an error.
func (b *Body) Detach(ctx context.Context) error {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()

	if b.session == nil {
		return nil
	}

	session := b.session
	b.session = nil
	if err := session.Detach(ctx); err != nil {
		return fmt.Errorf("detach %s: %w", b.target, err)
	}
	b.logger.Info("sidecar detached", zap.Int("pid", session.PID()))
	return nil
}

// Attached reports whether the body currently holds a session.
func (b *Body) Attached() bool {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()
	return b.session != nil
}

// exitReporter is implemented by sessions that can tell whether their
// process is still running.
type exitReporter interface {
	Exited() (bool, error)
}

// Alive reports whether the body is attached and its target process has not
// exited. Sessions without a process count as alive while attached.
func (b *Body) Alive() bool {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()
	if b.session == nil {
		return false
	}
	if r, ok := b.session.(exitReporter); ok {
		exited, _ := r.Exited()
		return !exited
	}
	return true
}

// PID returns the attached process id, or 0 when detached.
func (b *Body) PID() int {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()
	if b.session == nil {
		return 0
	}
	return b.session.PID()
}
