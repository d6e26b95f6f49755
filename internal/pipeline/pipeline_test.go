package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache/file"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/collector"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/dataset"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/events"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/geo"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/skills"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/store"
)

const detailsJSON = `[
	{
		"id": "1",
		"name": "Data Analyst",
		"area": {"name": "Москва (Центр)"},
		"salary": {"from": 100000, "to": 150000, "currency": "RUR", "gross": false},
		"experience": {"name": "От 1 года до 3 лет"},
		"employment": {"name": "Полная занятость"},
		"description": "<p>Work with <b>Pandas</b></p>",
		"key_skills": [{"name": "SQL"}, {"name": "Python"}],
		"alternate_url": "https://hh.ru/vacancy/1"
	},
	{
		"id": "2",
		"name": "Remote Analyst",
		"area": {"name": "Москва"},
		"salary": {"from": 3000, "to": 4000, "currency": "USD", "gross": true},
		"experience": {"name": "От 3 до 6 лет"},
		"employment": {"name": "Полная занятость"},
		"description": "<p>Tableau</p>",
		"key_skills": [],
		"alternate_url": "https://hh.ru/vacancy/2"
	},
	{
		"id": "3",
		"name": "Junior Analyst",
		"area": {"name": "Казань"},
		"salary": null,
		"experience": {"name": "Нет опыта"},
		"employment": {"name": "Стажировка"},
		"description": "<p>SQL</p>",
		"key_skills": [],
		"alternate_url": "https://hh.ru/vacancy/3"
	},
	{
		"id": "4",
		"name": "BI-аналитик",
		"salary": {"from": 80000, "to": null, "currency": "RUR", "gross": true},
		"experience": {"name": "От 1 года до 3 лет"},
		"employment": {"name": "Полная занятость"},
		"description": "<p>Excel</div> power bi",
		"alternate_url": "https://hh.ru/vacancy/4"
	}
]`

type recordingSink struct {
	mu       sync.Mutex
	rows     int
	runs     []store.StageRun
	exported []uuid.UUID
}

func (s *recordingSink) SaveVacancies(_ context.Context, runID uuid.UUID, rows []models.DerivedPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows += len(rows)
	s.exported = append(s.exported, runID)
	return nil
}

func (s *recordingSink) SaveStageRun(_ context.Context, run store.StageRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

type recordingPublisher struct {
	events []events.StageCompleted
}

func (p *recordingPublisher) PublishStageCompleted(_ context.Context, e events.StageCompleted) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() {}

type fakeGeocoder struct {
	known map[string]geo.Coordinates
	calls map[string]int
}

func (g *fakeGeocoder) Geocode(_ context.Context, city string) (geo.Coordinates, error) {
	g.calls[city]++
	return g.known[city], nil
}

type fixture struct {
	dir       string
	processor *Processor
	sink      *recordingSink
	publisher *recordingPublisher
	geocoder  *fakeGeocoder
}

func newFixture(t *testing.T, client *fakeClient) *fixture {
	t.Helper()
	dir := t.TempDir()

	engine, err := skills.NewEngine(skills.DefaultTable())
	require.NoError(t, err)

	memoStore, err := file.New(cache.Options{FilePath: filepath.Join(dir, "geocode_cache.json")})
	require.NoError(t, err)
	geocoder := &fakeGeocoder{
		known: map[string]geo.Coordinates{"Москва": geo.NewCoordinates(55.7558, 37.6173)},
		calls: map[string]int{},
	}

	var coll *collector.Collector
	if client != nil {
		coll = collector.NewCollector(client, zap.NewNop(), collector.Options{MaxPages: 5, Workers: 3})
	}

	cfg := &config.Config{GrossUpFactor: 1.15, SupportedCurrency: "RUR", SkillWorkers: 4}
	f := &fixture{
		dir:       dir,
		sink:      &recordingSink{},
		publisher: &recordingPublisher{},
		geocoder:  geocoder,
	}
	f.processor = NewProcessor(zap.NewNop(), cfg, engine, geo.NewMemo(geocoder, memoStore, zap.NewNop()), coll, f.sink, f.publisher)
	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func TestAnalyzeScenario(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.path("vacancies_detailed.json"), []byte(detailsJSON), 0o644))

	report, err := f.processor.Analyze(context.Background(), f.path("vacancies_detailed.json"), f.path("final.csv"))
	require.NoError(t, err)

	assert.Equal(t, 4, report.InputRows)
	assert.Equal(t, 2, report.OutputRows)
	assert.Equal(t, 2, report.DroppedCurrency)
	assert.Equal(t, 1, report.MissingSalary)
	assert.Equal(t, 1, report.MalformedMarkup)
	assert.Equal(t, 1, report.SchemaDrift["salary_from"])
	assert.Equal(t, 1, report.SchemaDrift["city"])
	assert.Equal(t, 1, report.SchemaDrift["key_skills"])

	ds, err := dataset.ReadCSV(f.path("final.csv"))
	require.NoError(t, err)
	assert.Equal(t, skills.DefaultTable().Labels(), ds.SkillLabels)
	require.Len(t, ds.Rows, 2)

	first := ds.Rows[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Москва (Центр)", first.City)
	require.NotNil(t, first.SalaryAvg)
	assert.InDelta(t, 143750, *first.SalaryAvg, 1e-6)
	assert.True(t, first.HasSkill("SQL"))
	assert.True(t, first.HasSkill("Python"))
	assert.True(t, first.HasSkill("Pandas"))
	assert.False(t, first.HasSkill("Tableau"))

	second := ds.Rows[1]
	assert.Equal(t, "4", second.ID)
	assert.InDelta(t, 80000, *second.SalaryAvg, 1e-6)
	assert.True(t, second.HasSkill("Excel"))
	assert.True(t, second.HasSkill("Power BI"))

	for _, row := range ds.Rows {
		assert.NotEqual(t, "2", row.ID)
	}

	assert.Equal(t, 2, f.sink.rows)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, StageAnalyze, f.publisher.events[0].Stage)
	assert.Equal(t, 2, f.publisher.events[0].Counts["dropped_currency"])
}

func TestAnalyzeLogsRecoveries(t *testing.T) {
	f := newFixture(t, nil)
	core, logs := observer.New(zapcore.DebugLevel)
	f.processor.logger = zap.New(core)
	require.NoError(t, os.WriteFile(f.path("vacancies_detailed.json"), []byte(detailsJSON), 0o644))

	_, err := f.processor.Analyze(context.Background(), f.path("vacancies_detailed.json"), f.path("final.csv"))
	require.NoError(t, err)

	drift := logs.FilterMessage("field omitted from projection").All()
	require.NotEmpty(t, drift)
	for _, entry := range drift {
		assert.Contains(t, entry.ContextMap()["error"], "SCHEMA_DRIFT")
	}

	markup := logs.FilterMessage("recovered malformed markup").All()
	require.Len(t, markup, 1)
	assert.Contains(t, markup[0].ContextMap()["error"], "MALFORMED_MARKUP")
}

func TestAnalyzeMissingSourceWritesNothing(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.processor.Analyze(context.Background(), f.path("vacancies_detailed.json"), f.path("final.csv"))
	assert.True(t, errors.Is(err, errors.ErrTypeMissingSourceFile))

	_, statErr := os.Stat(f.path("final.csv"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.sink.runs)
}

func TestGeocodeKeepsUnresolvedRows(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.path("vacancies_detailed.json"), []byte(detailsJSON), 0o644))
	_, err := f.processor.Analyze(context.Background(), f.path("vacancies_detailed.json"), f.path("final.csv"))
	require.NoError(t, err)

	report, err := f.processor.Geocode(context.Background(), f.path("final.csv"), f.path("coords.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.OutputRows)
	assert.Equal(t, 1, report.UnresolvedRows)
	assert.Equal(t, 1, report.GeocoderCalls)
	assert.Equal(t, 1, f.geocoder.calls["Москва"])

	ds, err := dataset.ReadCSV(f.path("coords.csv"))
	require.NoError(t, err)
	require.True(t, ds.HasCoordinates)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "Москва (Центр)", ds.Rows[0].City)
	assert.InDelta(t, 55.7558, *ds.Rows[0].Latitude, 1e-9)
	assert.Nil(t, ds.Rows[1].Latitude)
	assert.Nil(t, ds.Rows[1].Longitude)
}

func TestGeocodeMissingSource(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.processor.Geocode(context.Background(), f.path("final.csv"), f.path("coords.csv"))
	assert.True(t, errors.Is(err, errors.ErrTypeMissingSourceFile))
	_, statErr := os.Stat(f.path("coords.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReport(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.path("vacancies_detailed.json"), []byte(detailsJSON), 0o644))
	_, err := f.processor.Analyze(context.Background(), f.path("vacancies_detailed.json"), f.path("final.csv"))
	require.NoError(t, err)

	var buf bytes.Buffer
	run, err := f.processor.Report(context.Background(), f.path("final.csv"), &buf, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, run.InputRows)
	assert.Contains(t, buf.String(), "143750")
	assert.Contains(t, buf.String(), "Power BI")
}
