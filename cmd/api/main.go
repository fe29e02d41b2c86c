package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/conecta4/server/internal/config"
	"github.com/conecta4/server/internal/repository/memory"
	"github.com/conecta4/server/internal/repository/postgres"
	"github.com/conecta4/server/internal/repository/redis"
	"github.com/conecta4/server/internal/service/cleanup"
	"github.com/conecta4/server/internal/service/round"
	transportHttp "github.com/conecta4/server/internal/transport/http"
	"github.com/conecta4/server/internal/transport/http/middleware"
	"github.com/conecta4/server/internal/transport/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Info().Msg("no .env file found")
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Persistence
	var repo round.Repository
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:       cfg.DBMaxOpenConns,
			MaxIdleConns:       cfg.DBMaxIdleConns,
			ConnMaxLifetimeMin: cfg.DBConnMaxLifetimeMin,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("database unreachable")
		}
		defer db.Close()

		log.Info().Msg("running database migrations")
		if err := postgres.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		repo = postgres.NewRoundRepo(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, rounds are kept in memory only")
		repo = memory.NewRoundRepo()
	}

	// 2. Cache, optional
	var cache round.Cache
	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient = redis.InitRedis(ctx, cfg.RedisURL, cfg.RedisPassword)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = redis.NewRoundCache(redisClient, cfg.RoundCacheTTL)
	}

	// 3. Services
	rounds := round.NewService(repo, cache, round.Options{
		DefaultRows:    cfg.DefaultRows,
		DefaultColumns: cfg.DefaultColumns,
	})

	cleanupWorker := cleanup.NewWorker(rounds, cfg.CleanupInterval, cfg.FinishedRoundRetention)
	go cleanupWorker.Start(ctx)

	// 4. Transport
	connManager := websocket.NewConnectionManager()
	wsHandler := websocket.NewHandler(connManager, rounds, cfg.AllowedOrigins)
	roundHandler := transportHttp.NewRoundHandler(rounds)

	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"liveRounds":  rounds.LiveRounds(),
			"connections": connManager.Count(),
		})
	})
	roundHandler.Register(router)
	router.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited gracefully")
}
