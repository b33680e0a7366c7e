// Package puppet implements the host framework's puppet contract on top of
// an injected sidecar agent. Every domain operation is resolved by name on
// the agent at call time and forwarded, or rejected as unsupported.
package puppet

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/sidecar"
)

// Version of the sidecar puppet.
const Version = "0.1.0"

const defaultName = "sidecar"

// Emitter receives the puppet's out-of-band events.
type Emitter interface {
	Emit(ctx context.Context, eventType string, data map[string]interface{})
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, map[string]interface{}) {}

// Options configures an Adapter.
type Options struct {
	// Name identifies the puppet on the event bus.
	Name    string
	Emitter Emitter
	// Hooks run around every operation, in order before and in reverse
	// order after.
	Hooks  []Hook
	Logger *logger.Logger
}

// Adapter is the sidecar puppet. It exclusively owns its handle.
type Adapter struct {
	name    string
	handle  sidecar.Handle
	proxy   *sidecar.Proxy
	emitter Emitter
	hooks   []Hook
	logger  *logger.Logger
	state   *stateSwitch
	cache   *payloadCache

	loginMu sync.RWMutex
	selfID  string
}

// New creates a puppet over handle.
func New(handle sidecar.Handle, opts Options) *Adapter {
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if opts.Emitter == nil {
		opts.Emitter = nopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	a := &Adapter{
		name:    opts.Name,
		handle:  handle,
		proxy:   sidecar.NewProxy(handle),
		emitter: opts.Emitter,
		hooks:   opts.Hooks,
		state:   newStateSwitch(),
		cache:   newPayloadCache(),
		logger: opts.Logger.WithPuppet(opts.Name).
			WithTarget(handle.TargetProcess()).
			WithFields(zap.String("component", "puppet")),
	}
	return a
}

// Name returns the puppet name.
func (a *Adapter) Name() string {
	return a.name
}

// Version returns the puppet version.
func (a *Adapter) Version() string {
	return Version
}

// Supports reports whether the agent currently implements op.
func (a *Adapter) Supports(op string) bool {
	return a.proxy.Supports(op)
}

func (a *Adapter) setState(ctx context.Context, state State) {
	a.state.set(state)
	a.emitState(ctx, state)
}

func (a *Adapter) emitState(ctx context.Context, state State) {
	a.emitter.Emit(ctx, events.PuppetState, map[string]interface{}{
		"state": string(state),
	})
}

func (a *Adapter) emitError(ctx context.Context, op string, err error) {
	a.emitter.Emit(ctx, events.PuppetError, map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
}

// before stamps an operation id unless an enclosing operation already did,
// then runs the hooks in order.
func (a *Adapter) before(ctx context.Context, op string, args []interface{}) context.Context {
	if id, _ := ctx.Value(logger.OperationIDKey).(string); id == "" {
		ctx = context.WithValue(ctx, logger.OperationIDKey, uuid.NewString())
	}
	for _, h := range a.hooks {
		ctx = h.Before(ctx, op, args)
	}
	return ctx
}

func (a *Adapter) after(ctx context.Context, op string, err error) {
	for i := len(a.hooks) - 1; i >= 0; i-- {
		a.hooks[i].After(ctx, op, err)
	}
}
