package sidecar

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

func requireSleep(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a unix sleep binary")
	}
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not found in PATH")
	}
	return path
}

func TestExecInjector_NoTarget(t *testing.T) {
	_, err := (&ExecInjector{}).Inject(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestExecInjector_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&ExecInjector{}).Inject(ctx, "sleep")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecInjector_MissingBinary(t *testing.T) {
	_, err := (&ExecInjector{Logger: logger.NewNop()}).Inject(context.Background(), "/nonexistent/wechat-target")
	assert.Error(t, err)
}

func TestExecInjector_DetachTerminates(t *testing.T) {
	target := requireSleep(t)
	inj := &ExecInjector{Args: []string{"30"}, StopTimeout: 2 * time.Second, Logger: logger.NewNop()}

	session, err := inj.Inject(context.Background(), target)
	require.NoError(t, err)
	assert.Positive(t, session.PID())

	exited, _ := session.(*execSession).Exited()
	assert.False(t, exited)

	start := time.Now()
	require.NoError(t, session.Detach(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)

	exited, _ = session.(*execSession).Exited()
	assert.True(t, exited)
}

func TestExecInjector_DetachAfterExit(t *testing.T) {
	target := requireSleep(t)
	inj := &ExecInjector{Args: []string{"0"}, Logger: logger.NewNop()}

	session, err := inj.Inject(context.Background(), target)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		exited, _ := session.(*execSession).Exited()
		return exited
	}, 5*time.Second, 10*time.Millisecond)

	assert.NoError(t, session.Detach(context.Background()))
}

func TestBody_AttachWithExecInjector(t *testing.T) {
	target := requireSleep(t)
	log := logger.NewNop()
	b := NewBody(target, WithLogger(log), WithInjector(&ExecInjector{Args: []string{"30"}, Logger: log}))

	require.NoError(t, b.Attach(context.Background()))
	assert.Positive(t, b.PID())
	assert.True(t, b.Alive())
	require.NoError(t, b.Detach(context.Background()))
	assert.Equal(t, 0, b.PID())
	assert.False(t, b.Alive())
}

func TestBody_NotAliveAfterTargetExits(t *testing.T) {
	target := requireSleep(t)
	log := logger.NewNop()
	b := NewBody(target, WithLogger(log), WithInjector(&ExecInjector{Args: []string{"0"}, Logger: log}))

	require.NoError(t, b.Attach(context.Background()))
	require.Eventually(t, func() bool { return !b.Alive() }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, b.Attached())
	require.NoError(t, b.Detach(context.Background()))
}
