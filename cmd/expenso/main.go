package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenso/internal/auth"
	"expenso/internal/backend"
	"expenso/internal/cli"
	"expenso/internal/export"
	apphttp "expenso/internal/http"
	applog "expenso/internal/log"
	"expenso/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	var exporter export.Exporter
	if cfg.ExportEnabled() {
		exporter, err = export.NewSheetsExporter(ctx, export.Config{
			SpreadsheetID:   cfg.ExportSpreadsheetID,
			SheetName:       cfg.ExportSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.ExportSpreadsheetID)
	}

	txService := services.NewTransactionService(result.Store, amqpClient)
	authenticator := auth.NewAuthenticator(result.Store, cfg.AdminEmail)
	sessions := auth.NewSessionManager(auth.SessionConfig{TTL: cfg.SessionTTL})
	defer sessions.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, result.Store, txService, authenticator, sessions, exporter)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting expenso server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
