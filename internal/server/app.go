// Package server initializes and runs the keyvault service: it opens the
// record store, wires the services and the HTTP API, and handles graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/api"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/snapshot"
	"github.com/dmitrijs2005/keyvault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  repomanager.RepositoryManager
	server *api.Server
}

// StoreOptions translates the storage part of the config.
func StoreOptions(c *config.Config) repomanager.Options {
	return repomanager.Options{
		Backend:  c.StorageBackend,
		FilePath: c.DataFile,
		DSN:      c.DatabaseDSN,
		S3: snapshot.S3Options{
			Region:       c.S3Region,
			Bucket:       c.S3Bucket,
			Object:       c.S3Object,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		},
	}
}

// NewApp opens the record store and wires the services. The caller owns the
// returned App and must Run it, which closes the store on exit.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := repomanager.Open(ctx, StoreOptions(c))
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	reg := metrics.NewRegistry()
	mx := metrics.NewMetrics(reg)

	ks, err := services.NewKeyService(store, c, logger, mx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	as := services.NewAccountService(store, cryptox.NewArgon2idHasher(cryptox.DefaultParams), c, logger, mx)

	srv := api.NewServer(c, ks, as, logger, mx, reg)

	return &App{config: c, logger: logger, store: store, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx, app.config.HTTPAddr); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
