package main

import (
	"context"
	"fmt"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache/file"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache/redis"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/database"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/api"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/collector"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/events"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/geo"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/pipeline"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/skills"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/store"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func registerTracing(lc fx.Lifecycle, cfg *config.Config) error {
	shutdown, err := telemetry.InitTracer(context.Background(), "vacancylens", cfg.OTELCollectorURL)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			shutdown()
			return nil
		},
	})
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.Database, error) {
	return database.New(ctx, database.Options{
		DSN:             cfg.ClickHouseDSN,
		MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
		MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		Database:        cfg.ClickHouseDatabase,
	}, logger)
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*database.Database, error) {
	if cfg.ClickHouseDSN == "" {
		return nil, fmt.Errorf("CLICKHOUSE_DSN is not set")
	}
	db, err := openDatabase(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return db.Close() }})
	return db, nil
}

func newSink(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (store.Sink, error) {
	if cfg.ClickHouseDSN == "" {
		return store.NewNoopSink(), nil
	}
	db, err := newDatabase(lc, cfg, logger)
	if err != nil {
		return nil, err
	}
	return store.NewClickHouseSink(db.Conn(), logger), nil
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	publisher, err := events.NewPublisher(logger, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		publisher.Close()
		return nil
	}})
	return publisher, nil
}

func newVacancyClient(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) api.VacancyClient {
	var details cache.Cache
	if cfg.RedisAddr != "" {
		details = redis.New(cache.Options{
			DefaultTTL:    cfg.CacheTTL,
			RedisURL:      cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
		}, "vacancylens:")
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return details.Close() }})
	}
	return api.NewVacancyClient(logger, cfg, details)
}

func newCollector(client api.VacancyClient, cfg *config.Config, logger *zap.Logger) *collector.Collector {
	return collector.NewCollector(client, logger, collector.Options{
		MaxPages:        cfg.HHMaxPages,
		Workers:         cfg.FetchWorkers,
		RequestInterval: cfg.HHRequestInterval,
	})
}

func newMemo(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*geo.Memo, error) {
	memoStore, err := file.New(cache.Options{FilePath: cfg.GeocodeCachePath})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return memoStore.Close() }})

	geocoder := geo.NewNominatimGeocoder(logger, geo.NominatimOptions{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.NominatimUserAgent,
		Country:   cfg.GeocodeCountry,
		Interval:  cfg.GeocodeInterval,
	})
	return geo.NewMemo(geocoder, memoStore, logger), nil
}

func newEngine(cfg *config.Config) (*skills.Engine, error) {
	table, err := skills.LoadTable(cfg.SkillTablePath)
	if err != nil {
		return nil, err
	}
	return skills.NewEngine(table)
}

var coreModule = fx.Options(
	fx.NopLogger,
	fx.Provide(
		config.LoadConfig,
		newLogger,
	),
	fx.Invoke(registerTracing),
)

var pipelineModule = fx.Options(
	coreModule,
	fx.Provide(
		newSink,
		newPublisher,
		newVacancyClient,
		newCollector,
		newMemo,
		newEngine,
		pipeline.NewProcessor,
	),
)

// withApp starts an fx app, fills targets and runs fn before stopping it.
func withApp(ctx context.Context, module fx.Option, fn func(ctx context.Context) error, targets ...any) error {
	app := fx.New(module, fx.Populate(targets...))
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
