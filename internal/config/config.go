package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HHAPIBaseURL      string
	HHAuthURL         string
	HHClientID        string
	HHClientSecret    string
	HHUserAgent       string
	HHAPITimeout      time.Duration
	HHArea            int
	HHPerPage         int
	HHMaxPages        int
	HHRequestInterval time.Duration
	FetchWorkers      int
	SearchQuery       string

	NominatimURL       string
	NominatimUserAgent string
	GeocodeCountry     string
	GeocodeInterval    time.Duration
	GeocodeCachePath   string

	GrossUpFactor     float64
	SupportedCurrency string
	SkillTablePath    string
	SkillWorkers      int

	NATSURL         string
	NATSConnTimeout time.Duration

	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTELCollectorURL string
	LogLevel         string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		HHAPIBaseURL:      getEnvString("HH_API_BASE_URL", "https://api.hh.ru"),
		HHAuthURL:         getEnvString("HH_AUTH_URL", "https://hh.ru/oauth/token"),
		HHClientID:        getEnvString("HH_CLIENT_ID", ""),
		HHClientSecret:    getEnvString("HH_CLIENT_SECRET", ""),
		HHUserAgent:       getEnvString("HH_USER_AGENT", "HH-API-Explorer/1.0"),
		HHAPITimeout:      getEnvDuration("HH_API_TIMEOUT", 10*time.Second),
		HHArea:            getEnvInt("HH_AREA", 113),
		HHPerPage:         getEnvInt("HH_PER_PAGE", 100),
		HHMaxPages:        getEnvInt("HH_MAX_PAGES", 20),
		HHRequestInterval: getEnvDuration("HH_REQUEST_INTERVAL", 250*time.Millisecond),
		FetchWorkers:      getEnvInt("FETCH_WORKERS", 4),
		SearchQuery:       getEnvString("SEARCH_QUERY", "Аналитик данных"),

		NominatimURL:       getEnvString("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: getEnvString("NOMINATIM_USER_AGENT", "hh_vacancy_analyzer_project"),
		GeocodeCountry:     getEnvString("GEOCODE_COUNTRY", "Россия"),
		GeocodeInterval:    getEnvDuration("GEOCODE_INTERVAL", time.Second),
		GeocodeCachePath:   getEnvString("GEOCODE_CACHE_PATH", "geocode_cache.json"),

		GrossUpFactor:     getEnvFloat("SALARY_GROSS_UP_FACTOR", 1.15),
		SupportedCurrency: getEnvString("SALARY_CURRENCY", "RUR"),
		SkillTablePath:    getEnvString("SKILL_TABLE_PATH", ""),
		SkillWorkers:      getEnvInt("SKILL_WORKERS", 1),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", ""),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "vacancies"),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
		LogLevel:         getEnvString("LOG_LEVEL", "info"),
	}

	return config, nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
