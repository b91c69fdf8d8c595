package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"service-schedule/internal/app"
	"service-schedule/internal/config"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository"
	"service-schedule/internal/service"
	servicemigrations "service-schedule/migrations"
)

func main() {
	std := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)

	cfg, err := config.Load(".env")
	if err != nil {
		std.Fatalf("config error: %v", err)
	}

	appLog := logger.New(std, logger.ParseLevel(cfg.LogLevel))
	if cfg.RollbarToken != "" {
		host, _ := os.Hostname()
		reporter := logger.NewRollbarReporter(cfg.RollbarToken, cfg.Env, host)
		defer reporter.Flush()
		appLog = appLog.WithReporter(reporter)
	}

	appLog.Debug("config loaded",
		"http_addr", cfg.HTTPAddr,
		"identity_base_url", cfg.IdentityBaseURL,
		"db_max_open", cfg.DBMaxOpenConns,
		"db_max_idle", cfg.DBMaxIdleConns,
		"db_conn_max_lifetime", cfg.DBConnMaxLifetime,
		"timezone", cfg.Timezone,
		"materialize_cron", cfg.MaterializeCron,
	)

	db, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		std.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(shutdownCtx); err != nil {
		std.Fatalf("failed to connect to database: %v", err)
	}
	appLog.Debug("database connection successful")

	if err := servicemigrations.Up(shutdownCtx, db.DB, appLog); err != nil {
		std.Fatalf("failed to run migrations: %v", err)
	}
	appLog.Debug("migrations completed successfully")

	identity := service.NewIdentityHTTPClient(cfg.IdentityBaseURL, service.DefaultIdentityHTTPClient())
	application := app.New(
		repository.NewPostgresTxManager(db),
		identity,
		app.Options{Timezone: cfg.Timezone, MaterializeCron: cfg.MaterializeCron},
		appLog,
	)

	if _, err := application.StartMaterializer(shutdownCtx); err != nil {
		std.Fatalf("failed to schedule materializer: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			appLog.Error("http shutdown", err)
		}
	}()

	appLog.Info("service-schedule listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		std.Fatalf("http server error: %v", err)
	}
}
