package sidecar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

type fakeSession struct {
	pid       int
	detachErr error
	detached  int
}

func (s *fakeSession) PID() int { return s.pid }

func (s *fakeSession) Detach(context.Context) error {
	s.detached++
	return s.detachErr
}

type fakeInjector struct {
	session   *fakeSession
	injectErr error
	targets   []string
}

func (f *fakeInjector) Inject(_ context.Context, target string) (Session, error) {
	f.targets = append(f.targets, target)
	if f.injectErr != nil {
		return nil, f.injectErr
	}
	return f.session, nil
}

func echo(_ context.Context, args ...interface{}) (interface{}, error) {
	return args, nil
}

func TestBody_DefineLookupUndefine(t *testing.T) {
	b := NewBody("WeChat.exe", WithLogger(logger.NewNop()))

	_, ok := b.Lookup("contactList")
	assert.False(t, ok)

	b.Define("contactList", echo)
	m, ok := b.Lookup("contactList")
	require.True(t, ok)
	got, err := m(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x"}, got)

	b.Undefine("contactList")
	_, ok = b.Lookup("contactList")
	assert.False(t, ok)
}

func TestBody_DefineNilRemoves(t *testing.T) {
	b := NewBody("t", WithLogger(logger.NewNop()), WithMethods(map[string]Method{"a": echo}))
	b.Define("a", nil)
	_, ok := b.Lookup("a")
	assert.False(t, ok)
}

func TestBody_MethodsSorted(t *testing.T) {
	b := NewBody("t", WithLogger(logger.NewNop()), WithMethods(map[string]Method{
		"roomList":    echo,
		"contactList": echo,
		"messageFile": echo,
	}))
	assert.Equal(t, []string{"contactList", "messageFile", "roomList"}, b.Methods())
	assert.Equal(t, "t", b.TargetProcess())
}

func TestBody_AttachDetach(t *testing.T) {
	inj := &fakeInjector{session: &fakeSession{pid: 42}}
	b := NewBody("WeChat.exe", WithLogger(logger.NewNop()), WithInjector(inj))
	ctx := context.Background()

	assert.False(t, b.Attached())
	assert.Equal(t, 0, b.PID())

	assert.False(t, b.Alive())

	require.NoError(t, b.Attach(ctx))
	assert.True(t, b.Attached())
	assert.True(t, b.Alive())
	assert.Equal(t, 42, b.PID())
	assert.Equal(t, []string{"WeChat.exe"}, inj.targets)

	assert.ErrorIs(t, b.Attach(ctx), ErrAlreadyAttached)
	assert.Len(t, inj.targets, 1)

	require.NoError(t, b.Detach(ctx))
	assert.False(t, b.Attached())
	assert.Equal(t, 1, inj.session.detached)

	require.NoError(t, b.Detach(ctx))
	assert.Equal(t, 1, inj.session.detached)
}

func TestBody_AttachError(t *testing.T) {
	boom := errors.New("no such process")
	b := NewBody("t", WithLogger(logger.NewNop()), WithInjector(&fakeInjector{injectErr: boom}))

	err := b.Attach(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, b.Attached())
}

func TestBody_DetachErrorStillDetaches(t *testing.T) {
	boom := errors.New("detach failed")
	inj := &fakeInjector{session: &fakeSession{pid: 1, detachErr: boom}}
	b := NewBody("t", WithLogger(logger.NewNop()), WithInjector(inj))
	ctx := context.Background()
	require.NoError(t, b.Attach(ctx))

	err := b.Detach(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, b.Attached())

	require.NoError(t, b.Attach(ctx))
}

func TestNopInjector(t *testing.T) {
	b := NewBody("", WithLogger(logger.NewNop()), WithInjector(NopInjector{}))
	require.NoError(t, b.Attach(context.Background()))
	assert.Equal(t, 0, b.PID())
	require.NoError(t, b.Detach(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NopInjector{}.Inject(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
