package migrations

import "github.com/Klorm286/data-analyst-market-analysis-russia/common/database/schema"

var CreateVacanciesTable = schema.Migration{
	Version:     1,
	Description: "Create vacancies table",
	Up: `
		CREATE TABLE IF NOT EXISTS vacancies (
			id UUID,
			vacancy_id String,
			run_id UUID,
			title String,
			city String,
			salary_avg Nullable(Float64),
			experience_level String,
			employment_type String,
			url String,
			skills Array(String),
			latitude Nullable(Float64),
			longitude Nullable(Float64),
			loaded_at DateTime
		) ENGINE = ReplacingMergeTree(loaded_at)
		PARTITION BY toYYYYMM(loaded_at)
		ORDER BY (id)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS vacancies`,
}

var CreateStageRunsTable = schema.Migration{
	Version:     2,
	Description: "Create stage runs table",
	Up: `
		CREATE TABLE IF NOT EXISTS stage_runs (
			run_id UUID,
			stage String,
			input_rows UInt32,
			output_rows UInt32,
			missing_salary UInt32,
			dropped_currency UInt32,
			malformed_markup UInt32,
			unresolved_rows UInt32,
			finished_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (finished_at, run_id)
	`,
	Down: `DROP TABLE IF EXISTS stage_runs`,
}

// All lists every migration in version order.
var All = []schema.Migration{
	CreateVacanciesTable,
	CreateStageRunsTable,
}
