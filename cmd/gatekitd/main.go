package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gatekit/pkg/billing"
	"github.com/dmitrymomot/gatekit/pkg/cache"
	"github.com/dmitrymomot/gatekit/pkg/config"
	"github.com/dmitrymomot/gatekit/pkg/httpserver"
	"github.com/dmitrymomot/gatekit/pkg/logger"
	"github.com/dmitrymomot/gatekit/pkg/pg"
	"github.com/dmitrymomot/gatekit/pkg/redis"
	"github.com/dmitrymomot/gatekit/pkg/subscription"
	"github.com/dmitrymomot/gatekit/pkg/usage"
	"github.com/dmitrymomot/gatekit/pkg/webhook"
	billingsvc "github.com/dmitrymomot/gatekit/svc/billing"
)

type appConfig struct {
	PlansPath string `env:"PLANS_PATH" envDefault:"plans.json"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("gatekitd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg     appConfig
		logCfg     logger.Config
		pgCfg      pg.Config
		redisCfg   redis.Config
		cacheCfg   cache.Config
		paddleCfg  billing.PaddleConfig
		httpCfg    httpserver.Config
		ingressCfg billingsvc.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&cacheCfg)
	config.MustLoad(&paddleCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&ingressCfg)

	log := logger.FromConfig(logCfg)
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	catalog, err := subscription.NewCatalog(ctx, subscription.FilePlans{Path: appCfg.PlansPath})
	if err != nil {
		return err
	}

	provider, err := billing.NewPaddleProvider(paddleCfg)
	if err != nil {
		return err
	}

	subsStore := subscription.NewPostgresStore(pool)
	usageStore := usage.NewRedisStore(redisClient)
	eventLog := webhook.NewPostgresLog(pool)

	tiered := cache.NewTiered(
		cache.NewLocal(cacheCfg.LocalCapacity, cacheCfg.LocalTTL),
		cache.NewRedis(redisClient, cacheCfg.SharedTTL),
		cache.WithLogger(log),
		cache.WithInvalidateRetries(cacheCfg.InvalidateRetries),
	)

	tracker := usage.NewTracker(subsStore, catalog, usageStore, tiered,
		usage.WithLogger(log))

	processor := webhook.NewProcessor(provider, eventLog, subsStore, catalog, tracker, tiered,
		webhook.WithLogger(log))

	ingressOpts := append(ingressCfg.Options(), billingsvc.WithLogger(log))
	ingress := billingsvc.NewHandler(processor, ingressOpts...)

	r := chi.NewRouter()
	r.Get("/health", httpserver.HealthHandler(map[string]func(context.Context) error{
		"postgres": pg.Healthcheck(pool),
		"redis":    redis.Healthcheck(redisClient),
	}))
	r.Mount("/", ingress.Handle())

	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}
