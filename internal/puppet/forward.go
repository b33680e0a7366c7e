package puppet

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// call resolves op on the agent and forwards args to it.
func (a *Adapter) call(ctx context.Context, op string, args []interface{}) (interface{}, error) {
	m, ok := a.proxy.Resolve(op)
	if !ok {
		return nil, &UnsupportedError{Operation: op}
	}
	return m(ctx, args...)
}

// invoke forwards op and decodes its result into T.
func invoke[T any](ctx context.Context, a *Adapter, op string, args ...interface{}) (result T, err error) {
	ctx = a.before(ctx, op, args)
	defer func() { a.after(ctx, op, err) }()

	raw, err := a.call(ctx, op, args)
	if err != nil {
		return result, err
	}
	return decode[T](op, raw)
}

// run forwards op and discards its result.
func run(ctx context.Context, a *Adapter, op string, args ...interface{}) (err error) {
	ctx = a.before(ctx, op, args)
	defer func() { a.after(ctx, op, err) }()

	_, err = a.call(ctx, op, args)
	return err
}

// local runs fn as op without consulting the agent.
func local[T any](ctx context.Context, a *Adapter, op string, args []interface{}, fn func() (T, error)) (result T, err error) {
	ctx = a.before(ctx, op, args)
	defer func() { a.after(ctx, op, err) }()
	return fn()
}

// decode converts an agent result into T. A result already of type T is
// returned as is; nil yields the zero value; anything else is decoded by
// json field name, which covers results that crossed the bus as JSON.
func decode[T any](op string, raw interface{}) (T, error) {
	var out T
	if raw == nil {
		return out, nil
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(raw); err != nil {
		return out, fmt.Errorf("%s: unexpected result type %T: %w", op, raw, err)
	}
	return out, nil
}

// optional appends v to args when it is set.
func optional[T any](args []interface{}, v *T) []interface{} {
	if v == nil {
		return args
	}
	return append(args, *v)
}
