package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	apptelemetry "lcars-core/internal/application/telemetry"
	"lcars-core/internal/application/workers"
	"lcars-core/internal/config"
	"lcars-core/internal/core/command"
	"lcars-core/internal/core/files"
	"lcars-core/internal/core/network"
	"lcars-core/internal/core/telemetry"
	"lcars-core/internal/core/terminal"
	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
	"lcars-core/internal/storage/sqlite"
	transporthttp "lcars-core/internal/transport/http"
	"lcars-core/internal/transport/ipc"
	"lcars-core/internal/transport/rest"
	"lcars-core/internal/transport/websocket"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(cmdServe)
}

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Run the host core",
	Long:  `Starts the IPC server, the telemetry recorder and the terminal session reaper.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log := logger.New(cfg)
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var repo domain.TelemetryRepository
	var db *sql.DB
	if cfg.DBPath != "" {
		var err error
		db, err = sqlite.NewSqliteDB(cfg.DBPath, log)
		if err != nil {
			log.Error("telemetry archive disabled", "error", err)
		} else {
			defer db.Close()
			repo = sqlite.NewTelemetryRepository(db)
		}
	}

	hub := websocket.NewHub(log)
	runner := command.NewExec(cfg.ScriptTimeout)

	// Services
	telemetryService := telemetry.NewDefaultService(log, cfg.StaticTTL, cfg.AttemptTimeout, cfg.ScriptTimeout)
	recorder := apptelemetry.NewService(telemetryService, repo, hub, log)

	terminalManager := terminal.NewManager(log, hub, terminal.Options{
		Shell:       terminal.ParseShell(cfg.TerminalShell),
		InitDelay:   cfg.TerminalInit,
		IdleTimeout: cfg.TerminalIdle,
	})
	defer terminalManager.Shutdown()

	networkService := network.NewService(runner, log, network.Options{
		ConnectivityHost:  cfg.ConnectHost,
		ConnectivityProbe: cfg.ConnectProbe,
		Timeout:           cfg.ConnectTimeout,
	})

	filesService := files.NewService(runner, hub, log)
	defer filesService.Close()

	dispatcher := ipc.NewDispatcher(ipc.Services{
		Telemetry: telemetryService,
		Archive:   recorder,
		Terminal:  terminalManager,
		Network:   networkService,
		Files:     filesService,
		Exit:      cancel,
	}, log)

	// Transport
	router := rest.NewRouter(cfg, &rest.RouterDeps{
		Ws:  websocket.NewHandler(ctx, hub, dispatcher, log, cfg),
		IPC: rest.NewIPCHandler(dispatcher, log),
	})
	srv := transporthttp.NewServer(cfg, router, log)

	// Workers
	manager := workers.NewManager(workers.NewScheduler(log), cfg, log, &workers.ManagerServices{
		Telemetry: recorder,
		Terminal:  terminalManager,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		manager.Start(gctx)
		manager.Wait()
		return nil
	})

	log.Info("lcars: core online", "address", cfg.Address, "channels", len(dispatcher.Channels()), "archive", repo != nil)

	err := g.Wait()

	log.Info("lcars: core offline")

	return err
}
