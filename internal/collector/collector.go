package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/api"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("vacancylens/collector")

type Options struct {
	MaxPages        int
	Workers         int
	RequestInterval time.Duration
}

type SearchStats struct {
	Found      int
	Pages      int
	Collected  int
	Duplicates int
}

type EnrichStats struct {
	Requested int32
	Fetched   int32
	Failed    int32
	Skipped   int32
}

// Collector drives the remote vacancy API. All requests, from every worker, share
// one rate limiter.
type Collector struct {
	client  api.VacancyClient
	logger  *zap.Logger
	opts    Options
	limiter *rate.Limiter
}

func NewCollector(client api.VacancyClient, logger *zap.Logger, opts Options) *Collector {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	return &Collector{
		client:  client,
		logger:  logger,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Search pages through results for query, up to MaxPages pages. Any page error
// aborts the search.
func (c *Collector) Search(ctx context.Context, query string) ([]models.RawVacancy, SearchStats, error) {
	ctx, span := tracer.Start(ctx, "Collector.Search")
	defer span.End()

	var stats SearchStats
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, stats, err
	}
	first, err := c.client.SearchPage(ctx, query, 0)
	if err != nil {
		span.RecordError(err)
		return nil, stats, errors.Internal("fetching first search page", err)
	}

	stats.Found = first.Found
	stats.Pages = min(first.Pages, c.opts.MaxPages)
	c.logger.Info("search started",
		zap.String("query", query),
		zap.Int("found", first.Found),
		zap.Int("pages_total", first.Pages),
		zap.Int("pages_to_process", stats.Pages))

	seen := make(map[string]bool)
	var vacancies []models.RawVacancy
	collect := func(items []models.RawVacancy) {
		for _, item := range items {
			id := item.ID()
			if seen[id] {
				stats.Duplicates++
				continue
			}
			seen[id] = true
			vacancies = append(vacancies, item)
		}
	}
	collect(first.Items)

	for page := 1; page < stats.Pages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, stats, err
		}
		c.logger.Info("processing search page", zap.Int("page", page+1), zap.Int("of", stats.Pages))
		result, err := c.client.SearchPage(ctx, query, page)
		if err != nil {
			span.RecordError(err)
			return nil, stats, errors.Internal("fetching search page", err)
		}
		collect(result.Items)
	}

	stats.Collected = len(vacancies)
	span.SetAttributes(
		telemetry.Int("search.collected", stats.Collected),
		telemetry.Int("search.duplicates", stats.Duplicates),
	)
	return vacancies, stats, nil
}

// Enrich fetches the detail record of each raw vacancy. Failed ids are logged and
// left out; the remaining details keep the input order.
func (c *Collector) Enrich(ctx context.Context, raws []models.RawVacancy) ([]models.DetailRecord, *EnrichStats, error) {
	ctx, span := tracer.Start(ctx, "Collector.Enrich")
	defer span.End()

	stats := &EnrichStats{Requested: int32(len(raws))}
	results := make([]models.DetailRecord, len(raws))
	indexChan := make(chan int)

	wg := c.startWorkers(ctx, raws, results, stats, indexChan)

	var err error
	for i := range raws {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case indexChan <- i:
		}
		if err != nil {
			break
		}
	}
	close(indexChan)
	wg.Wait()

	if err != nil {
		span.RecordError(err)
		return nil, stats, err
	}

	details := make([]models.DetailRecord, 0, len(raws))
	for _, d := range results {
		if d != nil {
			details = append(details, d)
		}
	}

	span.SetAttributes(
		telemetry.Int("enrich.fetched", int(stats.Fetched)),
		telemetry.Int("enrich.failed", int(stats.Failed)),
	)
	c.logger.Info("completed fetching vacancy details",
		zap.Int32("requested", stats.Requested),
		zap.Int32("fetched", stats.Fetched),
		zap.Int32("failed", stats.Failed),
		zap.Int32("skipped", stats.Skipped))
	return details, stats, nil
}

func (c *Collector) startWorkers(ctx context.Context, raws []models.RawVacancy, results []models.DetailRecord, stats *EnrichStats, indexChan chan int) *sync.WaitGroup {
	var wg sync.WaitGroup
	for w := 0; w < c.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				id := raws[i].ID()
				if id == "" {
					atomic.AddInt32(&stats.Skipped, 1)
					c.logger.Warn("search item has no id", zap.Int("index", i))
					continue
				}
				if err := c.limiter.Wait(ctx); err != nil {
					return
				}
				detail, err := c.client.Vacancy(ctx, id)
				if err != nil {
					atomic.AddInt32(&stats.Failed, 1)
					c.logger.Error("failed to fetch vacancy", zap.String("id", id), zap.Error(err))
					continue
				}
				results[i] = detail
				atomic.AddInt32(&stats.Fetched, 1)
			}
		}()
	}
	return &wg
}
