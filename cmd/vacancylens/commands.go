package main

import (
	"context"
	"fmt"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/database"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/database/schema"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/database/schema/migrations"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/events"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/pipeline"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/report"

	"github.com/nats-io/nats.go"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultSearchFile   = "vacancies.json"
	defaultDetailFile   = "vacancies_detailed.json"
	defaultDatasetFile  = "vacancies_final_dataset.csv"
	defaultGeocodedFile = "vacancies_with_coords.csv"
)

var (
	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Search vacancies and save the result list",
		RunE:  runFetch,
	}
	enrichCmd = &cobra.Command{
		Use:   "enrich",
		Short: "Fetch the full detail record of every saved vacancy",
		RunE:  runEnrich,
	}
	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Build the derived dataset from detail records",
		RunE:  runAnalyze,
	}
	geocodeCmd = &cobra.Command{
		Use:   "geocode",
		Short: "Add city coordinates to the dataset",
		RunE:  runGeocode,
	}
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Print salary and skill summaries",
		RunE:  runReport,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back ClickHouse migrations",
		RunE:  runMigrate,
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print stage events published by other runs",
		RunE:  runWatch,
	}
)

func init() {
	fetchCmd.Flags().StringP("output", "o", defaultSearchFile, "search results file")
	fetchCmd.Flags().StringP("query", "q", "", "search text (defaults to SEARCH_QUERY)")

	enrichCmd.Flags().StringP("input", "i", defaultSearchFile, "search results file")
	enrichCmd.Flags().StringP("output", "o", defaultDetailFile, "detail records file")

	analyzeCmd.Flags().StringP("input", "i", defaultDetailFile, "detail records file")
	analyzeCmd.Flags().StringP("output", "o", defaultDatasetFile, "derived dataset")

	geocodeCmd.Flags().StringP("input", "i", defaultDatasetFile, "derived dataset")
	geocodeCmd.Flags().StringP("output", "o", defaultGeocodedFile, "dataset with coordinates")

	reportCmd.Flags().StringP("input", "i", defaultDatasetFile, "derived dataset")
	reportCmd.Flags().Int("top", report.DefaultTopCities, "number of cities to list")

	migrateCmd.Flags().Int("down", 0, "roll back this many migrations instead of applying")

	watchCmd.Flags().String("queue", "vacancylens-watch", "NATS queue group")
}

type stageFunc func(ctx context.Context, p *pipeline.Processor, cfg *config.Config) (*pipeline.RunReport, error)

func runStage(cmd *cobra.Command, stage stageFunc) error {
	var (
		processor *pipeline.Processor
		cfg       *config.Config
	)
	return withApp(cmd.Context(), pipelineModule, func(ctx context.Context) error {
		_, err := stage(ctx, processor, cfg)
		return err
	}, &processor, &cfg)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("output")
	query, _ := cmd.Flags().GetString("query")
	return runStage(cmd, func(ctx context.Context, p *pipeline.Processor, cfg *config.Config) (*pipeline.RunReport, error) {
		if query == "" {
			query = cfg.SearchQuery
		}
		return p.Fetch(ctx, query, out)
	})
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("output")
	return runStage(cmd, func(ctx context.Context, p *pipeline.Processor, _ *config.Config) (*pipeline.RunReport, error) {
		return p.Enrich(ctx, in, out)
	})
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("output")
	return runStage(cmd, func(ctx context.Context, p *pipeline.Processor, _ *config.Config) (*pipeline.RunReport, error) {
		return p.Analyze(ctx, in, out)
	})
}

func runGeocode(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("output")
	return runStage(cmd, func(ctx context.Context, p *pipeline.Processor, _ *config.Config) (*pipeline.RunReport, error) {
		return p.Geocode(ctx, in, out)
	})
}

func runReport(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetString("input")
	top, _ := cmd.Flags().GetInt("top")
	return runStage(cmd, func(ctx context.Context, p *pipeline.Processor, _ *config.Config) (*pipeline.RunReport, error) {
		return p.Report(ctx, in, cmd.OutOrStdout(), top)
	})
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	down, _ := cmd.Flags().GetInt("down")

	var (
		db     *database.Database
		logger *zap.Logger
	)
	module := fx.Options(coreModule, fx.Provide(newDatabase))
	return withApp(cmd.Context(), module, func(ctx context.Context) error {
		migrator := schema.NewMigrator(db.Conn(), logger)
		if down > 0 {
			n, err := migrator.Down(ctx, migrations.All, down)
			if err != nil {
				return err
			}
			logger.Info("rolled back migrations", zap.Int("count", n))
			return nil
		}

		n, err := migrator.Up(ctx, migrations.All)
		if err != nil {
			return err
		}
		logger.Info("all migrations completed successfully", zap.Int("applied", n))
		return nil
	}, &db, &logger)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	queue, _ := cmd.Flags().GetString("queue")

	var (
		cfg    *config.Config
		logger *zap.Logger
	)
	return withApp(cmd.Context(), coreModule, func(ctx context.Context) error {
		if cfg.NATSURL == "" {
			return fmt.Errorf("NATS_URL is not set")
		}
		nc, err := nats.Connect(cfg.NATSURL,
			nats.Timeout(cfg.NATSConnTimeout),
			nats.Name("vacancylens-watch"),
			nats.RetryOnFailedConnect(true),
		)
		if err != nil {
			return err
		}
		defer nc.Close()

		subscriber := events.NewSubscriber(logger, nc, func(_ context.Context, e events.StageCompleted) error {
			pterm.Printf("%s %s %s -> %s (%d in, %d out)\n",
				pterm.Gray(e.FinishedAt.Format("15:04:05")),
				pterm.LightCyan(e.Stage),
				e.Input, e.Output, e.InputRows, e.OutputRows)
			for name, n := range e.Counts {
				pterm.Printf("  %s %d\n", pterm.Yellow(name+":"), n)
			}
			return nil
		})
		if err := subscriber.Start(queue); err != nil {
			return err
		}
		defer subscriber.Stop()

		<-ctx.Done()
		return nil
	}, &cfg, &logger)
}
