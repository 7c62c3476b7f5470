package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	devconnect "github.com/goliatone/devconnect"
	"github.com/goliatone/devconnect/github"
	"github.com/goliatone/devconnect/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := devconnect.LoadConfig()
	if err != nil {
		devconnect.DefaultLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	zlog, err := buildZap(cfg.Debug)
	if err != nil {
		devconnect.DefaultLogger().Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	logger := devconnect.NewZapLogger(zlog)

	db, err := devconnect.OpenDatabase(cfg.GetDSN())
	if err != nil {
		logger.Error("failed to open database", "dsn", cfg.GetDSN(), "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := devconnect.CreateSchema(ctx, db); err != nil {
		logger.Error("failed to create schema", "error", err)
		os.Exit(1)
	}

	repo := devconnect.NewRepositoryManager(db)
	repo.MustValidate()

	provider := devconnect.NewUserProvider(repo.Users()).WithLogger(logger)
	auther := devconnect.NewAuthenticator(provider, cfg).WithLogger(logger)

	srv := server.New(cfg, repo, auther,
		server.WithLogger(logger),
		server.WithMetrics(server.NewMetrics(prometheus.DefaultRegisterer)),
		server.WithRepoFetcher(github.NewClient()),
		server.WithLoginRate(cfg.LoginRatePerMin),
	)

	go func() {
		if err := srv.Listen(cfg.GetHTTPAddr()); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

func buildZap(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
