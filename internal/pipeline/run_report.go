package pipeline

import (
	"sort"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/events"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StageFetch   = "fetch"
	StageEnrich  = "enrich"
	StageAnalyze = "analyze"
	StageGeocode = "geocode"
	StageReport  = "report"
)

// RunReport is the end-of-stage account of every record that was recovered
// rather than processed cleanly.
type RunReport struct {
	RunID      uuid.UUID
	Stage      string
	Input      string
	Output     string
	InputRows  int
	OutputRows int

	MissingSalary   int
	DroppedCurrency int
	MalformedMarkup int
	SchemaDrift     map[string]int

	UniqueCities     int
	UnresolvedCities int
	UnresolvedRows   int
	GeocoderCalls    int

	FailedDetails int

	Started  time.Time
	Finished time.Time
}

func newRunReport(stage, input, output string) *RunReport {
	return &RunReport{
		RunID:       uuid.New(),
		Stage:       stage,
		Input:       input,
		Output:      output,
		SchemaDrift: map[string]int{},
		Started:     time.Now(),
	}
}

// Counts flattens the non-zero recovery counters, schema drift keyed as
// "missing_<field>".
func (r *RunReport) Counts() map[string]int {
	counts := map[string]int{}
	add := func(name string, v int) {
		if v > 0 {
			counts[name] = v
		}
	}
	add("missing_salary", r.MissingSalary)
	add("dropped_currency", r.DroppedCurrency)
	add("malformed_markup", r.MalformedMarkup)
	add("unique_cities", r.UniqueCities)
	add("unresolved_cities", r.UnresolvedCities)
	add("unresolved_rows", r.UnresolvedRows)
	add("geocoder_calls", r.GeocoderCalls)
	add("failed_details", r.FailedDetails)
	for field, n := range r.SchemaDrift {
		add("missing_"+field, n)
	}
	return counts
}

func (r *RunReport) Log(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("stage", r.Stage),
		zap.String("run_id", r.RunID.String()),
		zap.String("input", r.Input),
		zap.String("output", r.Output),
		zap.Int("input_rows", r.InputRows),
		zap.Int("output_rows", r.OutputRows),
		zap.Duration("elapsed", r.Finished.Sub(r.Started)),
	}
	counts := r.Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, zap.Int(name, counts[name]))
	}
	logger.Info("stage completed", fields...)
}

func (r *RunReport) event() events.StageCompleted {
	return events.StageCompleted{
		RunID:      r.RunID.String(),
		Stage:      r.Stage,
		Input:      r.Input,
		Output:     r.Output,
		InputRows:  r.InputRows,
		OutputRows: r.OutputRows,
		Counts:     r.Counts(),
		FinishedAt: r.Finished,
	}
}

func (r *RunReport) stageRun() store.StageRun {
	return store.StageRun{
		RunID:           r.RunID,
		Stage:           r.Stage,
		InputRows:       r.InputRows,
		OutputRows:      r.OutputRows,
		MissingSalary:   r.MissingSalary,
		DroppedCurrency: r.DroppedCurrency,
		MalformedMarkup: r.MalformedMarkup,
		UnresolvedRows:  r.UnresolvedRows,
		FinishedAt:      r.Finished,
	}
}
