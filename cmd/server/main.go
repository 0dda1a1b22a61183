package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/manifest-api-go/internal/app"
	"github.com/arnavshah/manifest-api-go/internal/config"
	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "manifest-api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	flagSet := pflag.NewFlagSet("manifest-api", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	flagSet.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "trip store backend: sql, remote or mongo")
	flagSet.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	flagSet.DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "how often to refetch the manifest")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	go a.Coord.Run(ctx, cfg.RefreshInterval)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.Router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "store", cfg.StoreBackend, "version", cfg.AppVersion)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("could not run server: %w", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return err
	}

	log.Info("Server exited")
	return nil
}
