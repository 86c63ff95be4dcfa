package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"courier/internal/agent"
	"courier/internal/config"
	"courier/internal/daemon"
	"courier/internal/ipc"
	"courier/internal/logging"
	"courier/internal/notifications"
	"courier/internal/queue"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalf("courierd: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, _, _, err := config.Load(os.Getenv("COURIER_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "courierd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	registry, err := buildAgents(cfg, store, notifier, logger)
	if err != nil {
		return fmt.Errorf("configure agents: %w", err)
	}

	d, err := daemon.New(cfg, store, registry, notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	// A failed start leaves the process alive so the socket still answers
	// status queries and the operator can see what went wrong.
	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
		)
	}

	<-ctx.Done()
	logger.Info("courier daemon shutting down")
	return nil
}

func buildAgents(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger) (*agent.Registry, error) {
	agents := make([]*agent.Agent, 0, len(cfg.Agents))
	for _, agentCfg := range cfg.Agents {
		ag, err := agent.New(agentCfg, cfg.Delivery, agent.Dependencies{
			Store:    store,
			Notifier: notifier,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", agentCfg.Name, err)
		}
		agents = append(agents, ag)
	}
	return agent.NewRegistry(agents...)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
