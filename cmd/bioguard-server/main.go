package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bioguard/internal/config"
	"bioguard/internal/controller"
	"bioguard/internal/logging"
	"bioguard/internal/router"
	"bioguard/internal/service"
	"bioguard/internal/store/diagnosis"
	"bioguard/internal/store/disease"
	"bioguard/internal/store/history"
	"bioguard/internal/store/patient"
	"bioguard/internal/store/report"
	"bioguard/internal/tlsconfig"
	"bioguard/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load configuration.
	configPath := os.Getenv("BIOGUARD_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.properties"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Initialize logging.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 3. Build the stores.
	patients, err := patient.New(cfg.Storage.PatientsCSVPath, logger)
	if err != nil {
		logger.Fatal("failed to open patient store", zap.Error(err))
	}
	diseases, err := disease.New(cfg.Storage.DiseasesDirectory, logger)
	if err != nil {
		logger.Fatal("failed to open disease store", zap.Error(err))
	}
	diagnoses, err := diagnosis.New(cfg.Storage.DiagnosticsRoot, logger)
	if err != nil {
		logger.Fatal("failed to open diagnosis store", zap.Error(err))
	}
	reports, err := report.New(cfg.Storage.ReportsDirectory, logger)
	if err != nil {
		logger.Fatal("failed to open report store", zap.Error(err))
	}
	hist, err := history.New(cfg.Storage.DiagnosticsRoot, logger)
	if err != nil {
		logger.Fatal("failed to open history store", zap.Error(err))
	}

	// 4. Wire the service and controllers.
	svc := service.New(patients, diseases, diagnoses, reports, hist, logger)
	ctrl := controller.New(svc)

	r := router.New(logger)
	r.Register("POST", "patient", ctrl.RegisterPatient)
	r.Register("POST", "disease", ctrl.RegisterDisease)
	r.Register("POST", "diagnose", ctrl.Diagnose)

	// 5. Load the TLS keystore and build the listener.
	tlsCfg, err := tlsconfig.Load(cfg.TLS.KeystorePath, cfg.TLS.KeystorePassword)
	if err != nil {
		logger.Fatal("failed to load TLS keystore", zap.Error(err))
	}
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := transport.New(addr, tlsCfg, r.Dispatch, logger)

	// 6. Start the listener in its own goroutine.
	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrChan <- err
		}
	}()
	logger.Info("bioguard server started", zap.String("addr", addr))

	// 7. Wait for a shutdown signal or a fatal server error.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErrChan:
		logger.Error("server error, shutting down", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("bioguard server stopped")
}
