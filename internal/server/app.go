// Package server assembles and runs the application: configuration, logging,
// database and migrations, the event publisher and the HTTP API, with
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"finledger/internal/logging"
	"finledger/internal/server/config"
	"finledger/internal/server/events"
	"finledger/internal/server/httpapi"
	"finledger/internal/server/repositories/repomanager"
	"finledger/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	publisher events.Publisher
	httpSrv   *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("amqp init error: %w", err)
		}
		publisher = p
	}

	userService := services.NewUserService(db, rm, cfg)
	txService := services.NewTransactionService(db, rm, publisher, logger)
	exportService := services.NewExportService(db, rm, cfg)

	httpSrv := httpapi.NewServer(cfg, logger, db, userService, txService, exportService)

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		publisher: publisher,
		httpSrv:   httpSrv,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until the context is cancelled or the listener fails, then
// drains in-flight requests and releases the broker connection and the
// database pool.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "starting server",
		"addr", app.config.EndpointAddr,
		"environment", app.config.Environment,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.httpSrv.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.httpSrv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
	}
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(shutdownCtx, "publisher close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}

	app.logger.Info(shutdownCtx, "server stopped")

	return runErr
}
