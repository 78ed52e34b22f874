package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/admin"
	"github.com/bazuu/investorconnect/internal/api"
	"github.com/bazuu/investorconnect/internal/auth"
	"github.com/bazuu/investorconnect/internal/chat"
	"github.com/bazuu/investorconnect/internal/config"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/jobs"
	"github.com/bazuu/investorconnect/internal/notify"
	"github.com/bazuu/investorconnect/internal/payments"
	"github.com/bazuu/investorconnect/internal/pitches"
	"github.com/bazuu/investorconnect/internal/scheduler"
	"github.com/bazuu/investorconnect/internal/storage"
)

// shutdownTimeout bounds the graceful stop of the HTTP server.
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the API server and scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.APIAddr = addr
			}
			if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
				cfg.Workers = workers
			}
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides api_addr)")
	cmd.Flags().Int("workers", 0, "Scheduler worker count (overrides workers)")
	return cmd
}

// apiServer is the interface used by serve() to decouple from api.Server for testing.
type apiServer interface {
	Start(addr string) error
	Stop(ctx context.Context) error
}

var newAPIServer = func(svc api.Services, logger *slog.Logger) apiServer {
	return api.NewServer(svc, logger)
}

var newScheduler = func(store db.RunLogStore, jobs []scheduler.Job, poll time.Duration, workers int, logger *slog.Logger) (scheduler.Scheduler, error) {
	return scheduler.NewJobScheduler(store, jobs, poll, workers, logger)
}

var newGateway = func(cfg config.MpesaConfig) payments.Gateway {
	return payments.NewMpesaClient(cfg)
}

var newMedia = func(root string) (*storage.Local, error) {
	return storage.NewLocal(root)
}

// app is the wired set of services behind one running server.
type app struct {
	services api.Services
	jobs     []scheduler.Job
}

func wire(cfg *config.Config, store db.Store, logger *slog.Logger) (*app, error) {
	media, err := newMedia(cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("opening media directory: %w", err)
	}
	notifier := notify.NewNotifier(store, notify.NewMailer(cfg.SMTP, logger), logger)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	pay := payments.NewService(store, newGateway(cfg.Mpesa), cfg, logger)
	acct := accounts.NewService(store, pay, media, tokens, notifier, logger)
	pay.SetAccountCreator(acct)

	chats := chat.NewService(store, logger)
	acct.SetChatStarter(chats)
	pitchSvc := pitches.NewService(store, chats, media, notifier, logger)
	jobSvc := jobs.NewService(store, media, notifier, logger)
	adminSvc := admin.NewService(store, acct, pitchSvc, pay, notifier, logger)

	return &app{
		services: api.Services{
			Accounts: acct,
			Pitches:  pitchSvc,
			Jobs:     jobSvc,
			Chat:     chats,
			Payments: pay,
			Admin:    adminSvc,
			RunLogs:  store,
		},
		jobs: scheduler.MaintenanceJobs(cfg.Schedules, store, jobSvc, pay, time.Now),
	}, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	logger.Info("starting investorconnect", "db_path", cfg.DBPath, "addr", cfg.APIAddr)

	store, err := newSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	a, err := wire(cfg, store, logger)
	if err != nil {
		return err
	}

	sched, err := newScheduler(store, a.jobs, cfg.PollInterval, cfg.Workers, logger)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	a.services.Scheduler = sched

	apiSrv := newAPIServer(a.services, logger)
	if err := apiSrv.Start(cfg.APIAddr); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		_ = apiSrv.Stop(context.Background())
		return fmt.Errorf("starting scheduler: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiSrv.Stop(stopCtx); err != nil {
		logger.Error("api server stop error", "error", err)
	}
	if err := sched.Stop(); err != nil {
		logger.Error("scheduler stop error", "error", err)
	}
	return nil
}
