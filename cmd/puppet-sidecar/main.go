// Package main runs a sidecar puppet: it attaches to the configured chat
// client process, bridges an agent over the event bus and serves the
// control API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/api"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/config"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/sidecar"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/tracing"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a config file or directory")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadWithPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *printConfig {
		if err := config.Dump(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to print configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("puppet sidecar exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting puppet sidecar",
		zap.String("puppet", cfg.Puppet.Name),
		zap.String("target_process", cfg.Sidecar.TargetProcess),
		zap.String("version", puppet.Version))

	// 3. Tracing
	if err := tracing.Init(ctx, cfg.Tracing); err != nil {
		log.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	// 4. Event bus
	provided, closeBus, err := events.Provide(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeBus() }()
	if provided.NATS != nil {
		log.Info("Connected to NATS event bus", zap.String("url", cfg.NATS.URL))
	} else {
		log.Info("Using in-memory event bus")
	}

	// 5. Sidecar body, injector and agent bridge
	body := sidecar.NewBody(cfg.Sidecar.TargetProcess,
		sidecar.WithLogger(log),
		sidecar.WithInjector(newInjector(cfg, log)),
	)
	bridge := sidecar.NewBridge(provided.Bus, body, cfg.Sidecar.Session, cfg.Sidecar.CallTimeoutDuration(), log)
	if err := bridge.Start(); err != nil {
		return err
	}
	defer func() { _ = bridge.Close() }()

	// 6. Puppet
	p := puppet.New(body, puppet.Options{
		Name:    cfg.Puppet.Name,
		Emitter: events.NewPublisher(provided.Bus, cfg.Puppet.Name, log),
		Hooks: []puppet.Hook{
			puppet.NewTraceHook(tracing.Tracer("puppet")),
			puppet.NewLogHook(log),
		},
		Logger: log,
	})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Puppet.AutoStart {
		g.Go(func() error {
			if err := p.Start(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	// 7. Control API
	if cfg.Server.Enabled {
		if cfg.Logging.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		server := &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      api.NewServer(p, provided.Bus, log, api.WithProcess(body)).Handler(),
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		}
		g.Go(func() error {
			log.Info("Control API listening", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("control API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()

	// 8. Graceful shutdown
	log.Info("Shutting down puppet sidecar...")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopErr := p.Stop(stopCtx); stopErr != nil {
		log.Error("Puppet stop error", zap.Error(stopErr))
	}
	log.Info("Puppet sidecar stopped")
	return err
}

// newInjector spawns the target process when one is configured. Without a
// target the agent is expected to run on its own and only talk over the bus.
func newInjector(cfg *config.Config, log *logger.Logger) sidecar.Injector {
	if cfg.Sidecar.TargetProcess == "" {
		return sidecar.NopInjector{}
	}
	return &sidecar.ExecInjector{
		Args:        cfg.Sidecar.Args,
		StopTimeout: cfg.Sidecar.StopTimeoutDuration(),
		Logger:      log,
	}
}
