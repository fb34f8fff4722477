package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joonhak/tripmarket/internal/api"
	"github.com/joonhak/tripmarket/internal/cache"
	"github.com/joonhak/tripmarket/internal/config"
	"github.com/joonhak/tripmarket/internal/logging"
	"github.com/joonhak/tripmarket/internal/metrics"
	"github.com/joonhak/tripmarket/internal/observability"
	"github.com/joonhak/tripmarket/internal/service"
	"github.com/joonhak/tripmarket/internal/store"
)

func serveCmd() *cobra.Command {
	var (
		httpAddr string
		noRedis  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.HTTP.Addr = httpAddr
			}

			logging.Init(cfg.Log.Format, cfg.Log.Level)
			log := logging.Op()

			ctx := context.Background()
			if err := observability.Init(ctx, observability.Config{
				Enabled:     cfg.Telemetry.Enabled,
				Endpoint:    cfg.Telemetry.Endpoint,
				ServiceName: "tripmarket",
				SampleRate:  cfg.Telemetry.SampleRate,
			}); err != nil {
				return err
			}
			defer observability.Shutdown(ctx)

			pg, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pg.Close()

			m := metrics.New("tripmarket")

			// Without Redis the cache layer runs in-process: correct,
			// just not shared across instances.
			var backend cache.Store
			if noRedis || cfg.Redis.Addr == "" {
				backend = cache.NewInMemoryStore()
				log.Info("cache backend: in-memory")
			} else {
				backend = cache.NewRedisStore(cache.RedisConfig{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				log.Info("cache backend: redis", "addr", cfg.Redis.Addr)
			}
			defer backend.Close()

			kv := cache.NewKeyValueCache(backend,
				cache.WithLogger(log),
				cache.WithMetrics(m),
				cache.WithTimeout(cfg.Cache.Timeout),
			)
			curationCache := cache.NewCurationCacheRepository(kv, cfg.Cache.TTL)
			productCache := cache.NewProductCacheRepository(kv, cfg.Cache.TTL)

			strategies := service.NewStrategyRegistry(
				service.NewTicketStrategy(pg),
				service.NewFlightStrategy(pg),
				service.NewAccommodationStrategy(pg),
			)
			curations := service.NewCurationService(pg, pg, curationCache)
			products := service.NewProductService(strategies, pg, productCache)

			server := api.StartHTTPServer(cfg.HTTP.Addr, api.ServerConfig{
				Curations: curations,
				Products:  products,
				Metrics:   m,
				DB:        pg,
				Cache:     backend,
			})
			log.Info("server started", "addr", cfg.HTTP.Addr)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&noRedis, "no-redis", false, "Use the in-process cache backend")

	return cmd
}
