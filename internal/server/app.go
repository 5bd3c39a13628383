// Package server initializes and runs the application server: it opens
// the database, runs migrations, selects the blob store backend, builds
// the session codec, and starts the HTTP endpoint with graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/modus/internal/logging"
	"github.com/dmitrijs2005/modus/internal/server/blobstore"
	"github.com/dmitrijs2005/modus/internal/server/config"
	"github.com/dmitrijs2005/modus/internal/server/httpapi"
	"github.com/dmitrijs2005/modus/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/modus/internal/server/services"
	"github.com/dmitrijs2005/modus/internal/server/session"
)

// sessionKeySalt pins the argon2id derivation so the same SecretKey
// always yields the same AES key across restarts.
const sessionKeySalt = "modus.session.v1"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	key := session.DeriveKey([]byte(cfg.SecretKey), []byte(sessionKeySalt))
	codec, err := session.NewCodec(key, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session codec init error: %w", err)
	}

	httpServer := httpapi.NewServer(
		cfg.EndpointAddrHTTP,
		logger,
		codec,
		services.NewUserService(db, m),
		services.NewPostService(db, m),
		services.NewImageService(blobs),
		cfg.ShellBody,
	)

	return &App{config: cfg, logger: logger, db: db, http: httpServer}, nil
}

// newBlobStore picks S3 when a bucket is configured and the local
// directory store otherwise.
func newBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	if cfg.S3Bucket != "" {
		return blobstore.NewS3Store(ctx, blobstore.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return blobstore.NewDiskStore(cfg.BlobDir)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

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
		app.logger.Error(ctx, err.Error())
	}
}
