package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vacancylens",
	Short: "Batch pipeline for hh.ru data analyst vacancies",
	Long: `vacancylens collects vacancies from the hh.ru API and turns them into a
flat dataset with normalized salaries, skill flags and coordinates.

Stages run one at a time, each reading the previous stage's file:
  fetch    search results          -> vacancies.json
  enrich   vacancies.json          -> vacancies_detailed.json
  analyze  vacancies_detailed.json -> vacancies_final_dataset.csv
  geocode  vacancies_final_dataset.csv -> vacancies_with_coords.csv
  report   vacancies_final_dataset.csv -> terminal tables

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(fetchCmd, enrichCmd, analyzeCmd, geocodeCmd, reportCmd, migrateCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
