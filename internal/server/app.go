// Package server initializes and runs the gophauth server. It selects the
// user store, builds the identity service, creates the bootstrap admin and
// starts the gRPC and HTTP endpoints until a signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	identity *services.IdentityService
	closers  []io.Closer
}

// logOutput is where the JSON logger writes.
var logOutput io.Writer = os.Stdout

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: c, logger: logging.NewJSONLogger(logOutput, c.LogLevel)}

	repo, err := app.buildUserRepository(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(c.PasswordHashAlgorithm, c.PasswordHashCost)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), c.SigningAlgorithm,
		auth.WithTTLs(c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	app.identity = services.NewIdentityService(repo, codec, hasher, app.logger.With("module", "identity"))

	if c.BootstrapAdminEnabled() {
		_, err := app.identity.BootstrapAdmin(ctx, services.RegisterInput{
			Email:    c.BootstrapAdminEmail,
			Username: c.BootstrapAdminUsername,
			Password: c.BootstrapAdminPassword,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	return app, nil
}

// buildUserRepository picks PostgreSQL when a DSN is configured and the
// in-memory store otherwise, then layers the Redis cache on top if enabled.
func (app *App) buildUserRepository(ctx context.Context) (users.Repository, error) {
	var repo users.Repository

	if app.config.DatabaseDSN != "" {
		db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, db)

		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		repo = rm.Users(db)
	} else {
		app.logger.Warn(ctx, "DATABASE_DSN not set, users are kept in memory")
		repo = users.NewMemoryRepository()
	}

	if app.config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		app.closers = append(app.closers, rdb)

		if err := rdb.Ping(ctx).Err(); err != nil {
			app.logger.Warn(ctx, "redis unreachable, user cache will fall through", "error", err)
		}
		repo = users.NewCachedRepository(repo, rdb, app.config.UserCacheTTL, app.logger.With("module", "user_cache"))
	}

	return repo, nil
}

// Close releases database and cache connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close", "error", err)
		}
	}
	app.closers = nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.identity)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.identity)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or an endpoint fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	if app.config.EndpointAddrHTTP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
}
