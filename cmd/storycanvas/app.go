package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storycanvas/internal/ai"
	"storycanvas/internal/config"
	"storycanvas/internal/handler"
	"storycanvas/internal/messaging"
	"storycanvas/internal/middleware"
	"storycanvas/internal/models"
	"storycanvas/internal/repository"
	"storycanvas/internal/repository/memory"
	"storycanvas/internal/repository/postgres"
	"storycanvas/internal/repository/seed"
	"storycanvas/internal/repository/sqlite"
	"storycanvas/internal/service"
)

// lockTTL bounds how long a crashed instance keeps a story locked.
const lockTTL = 2 * time.Minute

// app owns every long-lived dependency of the server.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     repository.Store
	redis     *redis.Client
	publisher messaging.GenerationEventPublisher
	router    *gin.Engine
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	if a.store, err = openStore(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if cfg.SeedSampleData {
		data, err := seed.Sample()
		if err != nil {
			return nil, err
		}
		if _, err := seed.Apply(ctx, a.store, data, logger.Named("Seed")); err != nil {
			return nil, err
		}
	}

	var guard service.GenerationGuard = service.NewMemoryGuard(cfg.GenerationCooldown)
	if cfg.RedisAddr != "" {
		if a.redis, err = setupRedis(ctx, cfg); err != nil {
			return nil, err
		}
		guard = service.NewRedisGuard(a.redis, cfg.GenerationCooldown, lockTTL, logger)
	}

	a.publisher = messaging.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.GenerationEventsQueue, logger)
		if err != nil {
			return nil, err
		}
		a.publisher = publisher
	}

	var client ai.Client
	if cfg.LiveGeneration() {
		if client, err = ai.NewClient(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}

	stories := service.NewStoryService(a.store.Stories(), logger)
	ideas := service.NewIdeaService(a.store.Ideas(), logger)
	gateway := service.NewTextGateway(client, cfg.AITemperature, cfg.AIMaxTokens, logger)
	if !gateway.Live() {
		logger.Warn("No AI credentials configured, generation answers with the fallback narrative")
	}
	generations := service.NewGenerationService(a.store.Generations(), ideas, gateway, guard, a.publisher, logger)

	opts := []handler.Option{handler.WithRevealInterval(cfg.RevealInterval)}
	if cfg.GenerateRateLimit > 0 {
		opts = append(opts, handler.WithGenerateMiddleware(a.rateLimiter()))
	}
	a.router = newRouter(cfg, logger, level, handler.New(stories, ideas, generations, logger, opts...))
	return a, nil
}

// openStore returns the backend selected by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Info("Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	case config.StorageSQLite:
		store, err := sqlite.New(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		if err := postgres.MigrateUp(cfg.GetDSN(), logger.Named("Migrate")); err != nil {
			return nil, err
		}
		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			DSN:         cfg.GetDSN(),
			MaxConns:    cfg.DBMaxConns,
			IdleTimeout: cfg.DBIdleTimeout,
			MaxRetries:  10,
			RetryDelay:  3 * time.Second,
		}, logger)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver '%s'", cfg.StorageDriver)
	}
}

func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// rateLimiter limits generate calls per client IP and minute, shared through
// Redis when it is configured.
func (a *app) rateLimiter() gin.HandlerFunc {
	var store rateli.Store
	if a.redis != nil {
		store = rateli.RedisStore(&rateli.RedisOptions{
			RedisClient: a.redis,
			Rate:        time.Minute,
			Limit:       a.cfg.GenerateRateLimit,
		})
	} else {
		store = rateli.InMemoryStore(&rateli.InMemoryOptions{
			Rate:  time.Minute,
			Limit: a.cfg.GenerateRateLimit,
		})
	}
	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			a.logger.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

func newRouter(cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel, h *handler.Handler) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(logger))
	router.Use(middleware.Recovery(logger))

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// GET reports, PUT {"level":"debug"} changes the log level.
	router.GET("/log/level", gin.WrapH(level))
	router.PUT("/log/level", gin.WrapH(level))

	h.RegisterRoutes(router)

	p.Use(router)
	return router
}

func (a *app) close(ctx context.Context) {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("Failed to close store", zap.Error(err))
		}
	}
}
