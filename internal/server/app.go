// Package server initializes and runs the detection web application.
// It opens the credential store, applies migrations, wires the detector and
// the optional scan archive, and serves the HTML front end until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tumordetect/internal/dbx"
	"github.com/dmitrijs2005/tumordetect/internal/logging"
	"github.com/dmitrijs2005/tumordetect/internal/server/config"
	"github.com/dmitrijs2005/tumordetect/internal/server/detection"
	"github.com/dmitrijs2005/tumordetect/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tumordetect/internal/server/services"
	"github.com/dmitrijs2005/tumordetect/internal/server/session"
	"github.com/dmitrijs2005/tumordetect/internal/server/web"
)

const defaultSecretKey = "secretKey"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *web.Server
}

func NewApp(c *config.Config) (*App, error) {
	return newApp(context.Background(), c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.SecretKey == defaultSecretKey {
		logger.Warn(ctx, "using the default secret key; set -s for anything but local runs")
	}

	db, dialect, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := wire(ctx, c, logger, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}

	return app, nil
}

func wire(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, dialect dbx.Dialect) (*App, error) {
	rm, err := repomanager.New(dialect)
	if err != nil {
		return nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	creds := services.NewCredentialService(db, rm, c, logger)

	if c.UsersSeedPath != "" {
		n, err := creds.SeedFromFile(ctx, c.UsersSeedPath)
		if err != nil {
			return nil, fmt.Errorf("seed users: %w", err)
		}
		logger.Info(ctx, "users seeded", "path", c.UsersSeedPath, "created", n)
	}

	classes, err := detection.LoadClassList(c.ClassListPath)
	if err != nil {
		return nil, fmt.Errorf("class list: %w", err)
	}

	detector := detection.NewHTTPDetector(c.InferenceURL, c.InferenceTimeout, classes)

	opts := []web.Option{
		web.WithReadinessCheck("database", db.PingContext),
		web.WithReadinessCheck("inference", detector.CheckHealth),
	}

	var archiver detection.Archiver
	if c.ArchiveEnabled() {
		as := services.NewArchiveService(c, logger)
		archiver = as
		opts = append(opts, web.WithArchiveLinker(as))
		logger.Info(ctx, "scan archive enabled", "bucket", c.S3Bucket, "endpoint", c.S3BaseEndpoint)
	}

	analyzer := detection.NewService(detector, archiver, c, logger)

	sessions := session.NewManager()
	router := session.NewRouter(creds, logger)

	handler := web.NewHandler(sessions, router, analyzer, c.SecretKey, c.MaxUploadSize, logger, opts...)
	server := web.NewServer(c.HTTPAddr, handler.Routes(), c.ShutdownTimeout, logger)

	return &App{config: c, logger: logger, db: db, server: server}, nil
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
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a shutdown signal is received, then
// closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
