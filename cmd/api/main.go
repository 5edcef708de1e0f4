package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"favehub/internal/auth"
	"favehub/internal/config"
	"favehub/internal/db"
	"favehub/internal/docstore"
	"favehub/internal/docstore/memory"
	dspostgres "favehub/internal/docstore/postgres"
	dsredis "favehub/internal/docstore/redis"
	httpx "favehub/internal/http"
	"favehub/internal/observability"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "favehub", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	store, ping, closeStore, err := buildStore(cfg, prom)
	if err != nil {
		log.Error("store init failed", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	jwtMgr := auth.NewManager(cfg.JWTSecret, 24*time.Hour)

	router := httpx.NewRouter(httpx.Deps{
		Log:            log,
		Store:          store,
		JWT:            jwtMgr,
		Prom:           prom,
		BrowseCacheTTL: cfg.CacheTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		Ping:           ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend)

		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// buildStore wires the configured document store backend and returns it
// with a readiness probe and a close hook.
func buildStore(cfg config.Config, prom *observability.Prom) (docstore.Store, func() error, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return nil, nil, nil, err
		}

		store := dspostgres.New(pool, prom)

		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		ping := func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}

		return store, ping, pool.Close, nil

	case "redis":
		store := dsredis.New(dsredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, nil, err
		}

		ping := func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return store.Ping(ctx)
		}

		return store, ping, func() { _ = store.Close() }, nil

	case "memory":
		return memory.New(), func() error { return nil }, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
