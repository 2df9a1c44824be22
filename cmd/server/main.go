package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/backup"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/config"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/handler"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/server"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stores (all in-memory; state lives and dies with the process)
	userRepo := repository.NewUserRepository()
	recordRepo := repository.NewRecordRepository()
	chatRepo := repository.NewChatRepository()

	if err := userRepo.SeedMaster(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed master account", "err", err)
		os.Exit(1)
	}
	if cfg.SeedDemoData {
		if err := userRepo.SeedDemoEmployees(ctx, cfg.AdminPassword); err != nil {
			logger.Error("failed to seed demo employees", "err", err)
			os.Exit(1)
		}
		logger.Info("demo employees seeded")
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}
	reconciler := backup.Reconciler{Users: userRepo, Records: recordRepo, Logger: logger}

	// handlers
	healthHandler := handler.HealthHandler{Store: userRepo}
	authHandler := handler.AuthHandler{Service: &authSvc}
	recordHandler := handler.RecordHandler{Repo: recordRepo}
	reportHandler := handler.ReportHandler{Users: userRepo, Records: recordRepo}
	profileHandler := handler.ProfileHandler{Repo: userRepo}
	chatHandler := handler.ChatHandler{Repo: chatRepo, Users: userRepo}
	backupHandler := handler.BackupHandler{Reconciler: &reconciler, Users: userRepo, Records: recordRepo}
	userHandler := handler.UserHandler{Repo: userRepo}
	homeHandler := handler.HomeHandler{}

	router := server.NewRouter(cfg, logger,
		healthHandler, authHandler, recordHandler, reportHandler,
		profileHandler, chatHandler, backupHandler, userHandler, homeHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
