package sidecar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

const defaultStopTimeout = 5 * time.Second

// Injector attaches the agent to a target process.
type Injector interface {
	Inject(ctx context.Context, target string) (Session, error)
}

// Session is one live injection.
type Session interface {
	PID() int
	Detach(ctx context.Context) error
}

// ExecInjector spawns the target process and holds it for the lifetime of
// the session. Detach asks the process to terminate and kills it when it
// does not exit within StopTimeout.
type ExecInjector struct {
	Args        []string
	Env         []string
	Dir         string
	StopTimeout time.Duration
	Logger      *logger.Logger
}

// Inject starts target.
func (e *ExecInjector) Inject(ctx context.Context, target string) (Session, error) {
	if target == "" {
		return nil, ErrNoTarget
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The process must outlive ctx, so it is not bound to it.
	cmd := exec.Command(target, e.Args...)
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.Dir = e.Dir
	setProcGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", target, err)
	}

	log := e.Logger
	if log == nil {
		log = logger.Default()
	}
	stopTimeout := e.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}

	s := &execSession{
		cmd:         cmd,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
		logger:      log.WithFields(zap.String("component", "exec-injector"), zap.Int("pid", cmd.Process.Pid)),
	}
	go s.wait()
	return s, nil
}

type execSession struct {
	cmd         *exec.Cmd
	done        chan struct{}
	stopTimeout time.Duration
	logger      *logger.Logger

	mu      sync.Mutex
	waitErr error
}

func (s *execSession) wait() {
	err := s.cmd.Wait()
	s.mu.Lock()
	s.waitErr = err
	s.mu.Unlock()
	close(s.done)
	s.logger.Debug("target process exited", zap.Error(err))
}

func (s *execSession) PID() int {
	return s.cmd.Process.Pid
}

// Exited reports whether the target process has exited, and how.
func (s *execSession) Exited() (bool, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return true, s.waitErr
	default:
		return false, nil
	}
}

// Detach terminates the target process. A process that already exited
// detaches cleanly.
func (s *execSession) Detach(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	if err := terminate(s.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Debug("terminate signal failed, killing", zap.Error(err))
		return s.kill()
	}

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return nil
	case <-timer.C:
		s.logger.Warn("target process did not exit in time, killing",
			zap.Duration("stop_timeout", s.stopTimeout))
		return s.kill()
	case <-ctx.Done():
		_ = s.kill()
		return ctx.Err()
	}
}

func (s *execSession) kill() error {
	if err := killProcessGroup(s.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill target process: %w", err)
		}
	}
	<-s.done
	return nil
}

// NopInjector attaches without touching any process. It suits agents that
// run on their own and only talk over the bus.
type NopInjector struct{}

// Inject returns a session with no process behind it.
func (NopInjector) Inject(ctx context.Context, target string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nopSession{}, nil
}

type nopSession struct{}

func (nopSession) PID() int                     { return 0 }
func (nopSession) Detach(context.Context) error { return nil }
