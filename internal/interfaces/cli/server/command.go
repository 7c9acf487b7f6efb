package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	appsync "github.com/vitalink-io/vitalink/internal/application/wearable/sync"
	"github.com/vitalink-io/vitalink/internal/application/wearable/usecases"
	"github.com/vitalink-io/vitalink/internal/infrastructure/auth"
	"github.com/vitalink-io/vitalink/internal/infrastructure/cache"
	"github.com/vitalink-io/vitalink/internal/infrastructure/config"
	"github.com/vitalink-io/vitalink/internal/infrastructure/database"
	"github.com/vitalink-io/vitalink/internal/infrastructure/migration"
	oauthinfra "github.com/vitalink-io/vitalink/internal/infrastructure/oauth"
	"github.com/vitalink-io/vitalink/internal/infrastructure/providers"
	"github.com/vitalink-io/vitalink/internal/infrastructure/ratelimit"
	"github.com/vitalink-io/vitalink/internal/infrastructure/repository"
	"github.com/vitalink-io/vitalink/internal/infrastructure/scheduler"
	httpRouter "github.com/vitalink-io/vitalink/internal/interfaces/http"
	"github.com/vitalink-io/vitalink/internal/interfaces/http/handlers"
	"github.com/vitalink-io/vitalink/internal/interfaces/http/middleware"
	sharedConfig "github.com/vitalink-io/vitalink/internal/shared/config"
	"github.com/vitalink-io/vitalink/internal/shared/goroutine"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// Cached connections are short-lived so a revoked connection disappears
// from reads quickly even if an invalidation is missed.
const connectionCacheTTL = 5 * time.Minute

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Vitalink HTTP server with the wearable integration API and the background sync scheduler.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run GORM AutoMigrate on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		log.Errorw("failed to initialize database", "error", err)
		return err
	}
	defer database.Close()

	if autoMigrate {
		if err := database.Get().AutoMigrate(migration.AutoMigrateModels()...); err != nil {
			log.Errorw("auto-migrate failed", "error", err)
			return err
		}
		log.Infow("auto-migrate completed")
	} else if err := checkMigrations(log); err != nil {
		return err
	}

	redisClient, redisUp := initRedis(&cfg.Redis, log)
	defer redisClient.Close()

	// Stores degrade to in-process fallbacks when Redis calls fail, so the
	// client is wired in even when the initial ping failed.
	stateStore := cache.NewOAuthStateStore(redisClient, cfg.Wearables.StateTTL(), log)
	connCache := cache.NewConnectionCache(redisClient, connectionCacheTTL, log)

	var limiter ratelimit.RateLimiter
	if redisUp {
		limiter = ratelimit.NewRedisRateLimiter(redisClient)
	} else {
		log.Warnw("redis unavailable, using in-memory rate limiter")
		limiter = ratelimit.NewMemoryRateLimiter()
	}

	registry := providers.NewRegistry(&cfg.Wearables)
	httpClient := providers.NewRetryingClient(log)
	adapterFactory := func(pcfg *providers.Config) providers.Adapter {
		return providers.NewAdapter(pcfg, httpClient)
	}

	connRepo := repository.NewWearableConnectionRepository(database.Get())
	recordRepo := repository.NewWearableRecordRepository(database.Get())

	authorizer := oauthinfra.NewAuthorizer(registry, stateStore, log)
	tokenService := oauthinfra.NewTokenService(registry, stateStore, connRepo, connCache, log)

	orchestrator := appsync.NewOrchestrator(
		registry,
		limiter,
		tokenService,
		adapterFactory,
		connRepo,
		connCache,
		recordRepo,
		log,
	)

	beginAuthUC := usecases.NewBeginAuthorizationUseCase(authorizer, log)
	completeAuthUC := usecases.NewCompleteAuthorizationUseCase(tokenService, log)
	syncUC := usecases.NewSyncProviderUseCase(orchestrator, log)
	getRecordsUC := usecases.NewGetRecordsUseCase(recordRepo, log)
	disconnectUC := usecases.NewDisconnectProviderUseCase(connRepo, connCache, log)
	listUC := usecases.NewListProvidersUseCase(registry, connRepo, log)

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	authMW := middleware.NewAuthMiddleware(jwtService, log)

	handler := handlers.NewWearableHandler(
		beginAuthUC,
		completeAuthUC,
		syncUC,
		getRecordsUC,
		disconnectUC,
		listUC,
		cfg.Server.FrontendCallbackURL,
		log,
	)

	router := httpRouter.NewRouter(&cfg.Server, handler, authMW, log)

	schedulerMgr, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		log.Errorw("failed to create scheduler", "error", err)
		return err
	}
	if err := schedulerMgr.RegisterSyncJob(&cfg.Scheduler, connRepo, orchestrator); err != nil {
		log.Errorw("failed to register sync job", "error", err)
		return err
	}
	schedulerMgr.Start()
	defer func() {
		if err := schedulerMgr.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	goroutine.SafeGo(log, "http-server", func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server failed", "error", err)
			os.Exit(1)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

// checkMigrations warns when the schema is behind the bundled scripts.
// A missing scripts directory is tolerated for container images that
// migrate out of band.
func checkMigrations(log logger.Interface) error {
	scriptsPath, err := filepath.Abs("./internal/infrastructure/migration/scripts")
	if err != nil {
		return fmt.Errorf("failed to resolve scripts path: %w", err)
	}
	if _, err := os.Stat(scriptsPath); os.IsNotExist(err) {
		log.Debugw("migration scripts not found, skipping version check", "path", scriptsPath)
		return nil
	}

	runner := migration.NewRunner(scriptsPath, log)
	version, err := runner.Version(database.Get())
	if err != nil {
		log.Warnw("could not read migration version", "error", err)
		return nil
	}
	log.Infow("database schema version", "version", version)
	return nil
}

// initRedis builds the Redis client and probes it once. The boolean reports
// whether the probe succeeded; callers decide how to degrade.
func initRedis(cfg *sharedConfig.RedisConfig, log logger.Interface) (*redis.Client, bool) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnw("redis ping failed", "addr", cfg.GetAddr(), "error", err)
		return client, false
	}

	log.Infow("redis connection established", "addr", cfg.GetAddr())
	return client, true
}

func mapEnvToGinMode(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
