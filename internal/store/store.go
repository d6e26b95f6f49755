package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("vacancylens/store")

var rowNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// RowID is the warehouse key for a posting. Reloading the same posting replaces
// the earlier row.
func RowID(vacancyID string) uuid.UUID {
	return uuid.NewSHA1(rowNamespace, []byte(vacancyID))
}

type StageRun struct {
	RunID           uuid.UUID
	Stage           string
	InputRows       int
	OutputRows      int
	MissingSalary   int
	DroppedCurrency int
	MalformedMarkup int
	UnresolvedRows  int
	FinishedAt      time.Time
}

// Sink exports derived datasets to the warehouse.
type Sink interface {
	SaveVacancies(ctx context.Context, runID uuid.UUID, rows []models.DerivedPosting) error
	SaveStageRun(ctx context.Context, run StageRun) error
}

// Batcher is the part of clickhouse.Conn the sink needs.
type Batcher interface {
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
}

type clickhouseSink struct {
	conn   Batcher
	logger *zap.Logger
	now    func() time.Time
}

func NewClickHouseSink(conn Batcher, logger *zap.Logger) Sink {
	return &clickhouseSink{conn: conn, logger: logger, now: time.Now}
}

func (s *clickhouseSink) SaveVacancies(ctx context.Context, runID uuid.UUID, rows []models.DerivedPosting) error {
	ctx, span := tracer.Start(ctx, "SaveVacancies")
	defer span.End()
	span.SetAttributes(telemetry.Int("store.rows", len(rows)))

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO vacancies (
			id, vacancy_id, run_id, title, city, salary_avg,
			experience_level, employment_type, url, skills,
			latitude, longitude, loaded_at
		)`)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("prepare vacancies batch: %w", err)
	}

	loadedAt := s.now()
	for _, row := range rows {
		if err := batch.Append(
			RowID(row.ID),
			row.ID,
			runID,
			row.Title,
			row.City,
			row.SalaryAvg,
			row.Experience,
			row.Employment,
			row.URL,
			presentSkills(row.Skills),
			row.Latitude,
			row.Longitude,
			loadedAt,
		); err != nil {
			_ = batch.Abort()
			span.RecordError(err)
			return fmt.Errorf("append vacancy %s: %w", row.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("send vacancies batch: %w", err)
	}

	s.logger.Info("exported vacancies", zap.Int("rows", len(rows)), zap.String("run_id", runID.String()))
	return nil
}

func (s *clickhouseSink) SaveStageRun(ctx context.Context, run StageRun) error {
	ctx, span := tracer.Start(ctx, "SaveStageRun")
	defer span.End()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO stage_runs (
			run_id, stage, input_rows, output_rows, missing_salary,
			dropped_currency, malformed_markup, unresolved_rows, finished_at
		)`)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("prepare stage run batch: %w", err)
	}
	if err := batch.Append(
		run.RunID,
		run.Stage,
		uint32(run.InputRows),
		uint32(run.OutputRows),
		uint32(run.MissingSalary),
		uint32(run.DroppedCurrency),
		uint32(run.MalformedMarkup),
		uint32(run.UnresolvedRows),
		run.FinishedAt,
	); err != nil {
		_ = batch.Abort()
		return fmt.Errorf("append stage run: %w", err)
	}
	if err := batch.Send(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("send stage run batch: %w", err)
	}
	return nil
}

func presentSkills(flags []models.SkillFlag) []string {
	skills := make([]string, 0, len(flags))
	for _, f := range flags {
		if f.Present {
			skills = append(skills, f.Label)
		}
	}
	return skills
}

type noopSink struct{}

// NewNoopSink is used when no warehouse is configured.
func NewNoopSink() Sink { return noopSink{} }

func (noopSink) SaveVacancies(context.Context, uuid.UUID, []models.DerivedPosting) error {
	return nil
}

func (noopSink) SaveStageRun(context.Context, StageRun) error { return nil }
