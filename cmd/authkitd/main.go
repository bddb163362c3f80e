package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"authkit"
	"authkit/internal/config"
	"authkit/internal/httpapi"
	"authkit/jobs"
	"authkit/jwt"
	"authkit/provider/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	users, err := postgres.NewProvider(pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init user provider")
	}

	engineCfg := authkit.DefaultConfig()
	engineCfg.JWT = jwt.Config{
		Secret:        []byte(cfg.JWTSecret),
		AccessExpiry:  cfg.AccessExpiry,
		RefreshExpiry: cfg.RefreshExpiry,
		Issuer:        cfg.JWTIssuer,
	}

	engine, err := authkit.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithUserProvider(users).
		Build()
	if err != nil {
		log.Fatal().Err(err).Msg("build auth engine")
	}

	dispatcher := jobs.NewDispatcher(rdb, log.Logger)
	server := httpapi.NewServer(engine, dispatcher, log.Logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting authkitd")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
