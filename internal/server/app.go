// Package server wires the travelbuddy backend together: storage, session
// and event backends, the face matcher, the services and the gRPC and ops
// servers. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/face"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/redis"
	"github.com/dmitrijs2005/travelbuddy/internal/server/config"
	"github.com/dmitrijs2005/travelbuddy/internal/server/events"
	"github.com/dmitrijs2005/travelbuddy/internal/server/gate"
	"github.com/dmitrijs2005/travelbuddy/internal/server/ops"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/travelbuddy/internal/server/services"
	"github.com/dmitrijs2005/travelbuddy/internal/server/session"
	"github.com/dmitrijs2005/travelbuddy/internal/server/storage"
	"github.com/dmitrijs2005/travelbuddy/internal/server/verification"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/travelbuddy/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	broker events.Broker

	grpcServer *gs.GRPCServer
	opsServer  *ops.Server
}

// NewApp connects to every backend and builds the services. Redis is
// optional: without an address sessions and events stay in process.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel).With("service", common.ServiceName)

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	var store session.Store
	if c.RedisAddr != "" {
		rc, err := redis.New(redis.Config{Addr: c.RedisAddr, Password: c.RedisPassword})
		if err != nil {
			return err
		}
		app.redis = rc
		app.broker = events.NewRedisBroker(rc.Client, common.ServiceName, app.logger)
		store = session.NewRedisStore(rc.Client, common.ServiceName)
	} else {
		app.logger.Warn(ctx, "Redis is not configured, using in-process sessions and events")
		app.broker = events.NewMemoryBroker()
		store = session.NewMemoryStore()
	}

	objects, err := storage.NewS3Store(ctx, storage.S3Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Region:       c.S3Region,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}

	sessions := session.NewProvider(store, app.broker, c.SessionValidityDuration, app.logger)

	users := services.NewUserService(db, rm, sessions, c)
	profiles := services.NewProfileService(db, rm, app.broker, app.logger)
	images := services.NewImageService(db, rm, objects, app.logger)

	faceClient := face.NewAzureClient(c.FaceAPIEndpoint, c.FaceAPIKey, c.FaceAPITimeout, app.logger)
	verifier := face.NewVerifier(faceClient, images, app.logger)
	orchestrator := verification.NewOrchestrator(verifier, images, profiles, app.logger)
	watcher := gate.NewWatcher(sessions, profiles, app.logger)

	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger, users, profiles, images, orchestrator, watcher)

	checks := []ops.Check{
		{Name: "database", Run: db.PingContext},
		{Name: "face_api", Run: faceClient.HealthCheck},
	}
	if app.redis != nil {
		checks = append(checks, ops.Check{Name: "redis", Run: func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}})
	}
	app.opsServer = ops.NewServer(c.EndpointAddrHTTP, app.logger, checks...)

	return nil
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

// Run starts the servers and blocks until a signal arrives or one of them
// fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC server failed", "error", err)
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.opsServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "Ops server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "Shutdown error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

// Close releases the backends. It is safe on a partially built App.
func (app *App) Close() error {
	var errs []error
	if app.broker != nil {
		errs = append(errs, app.broker.Close())
		app.broker = nil
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
		app.redis = nil
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
		app.db = nil
	}
	return errors.Join(errs...)
}
