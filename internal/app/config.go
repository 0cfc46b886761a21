package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/llm"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
	"github.com/yungbote/datagrid-backend/internal/realtime/bus"
)

const (
	defaultPort           = 4000
	defaultMaxUploadBytes = 1 << 30
	defaultUploadDir      = "uploads"
	defaultSQLitePath     = "datagrid.db"
)

type Config struct {
	Port int
	Env  string

	DB        dbpkg.Config
	Storage   objectstore.Config
	LLM       llm.Config
	Redis     bus.RedisConfig
	Otel      observability.OtelConfig
	Log       logger.Options
	ConfigSrc string

	MaxUploadBytes  int64
	IngestBatchSize int
	MetricsEnabled  bool
	CORSOrigins     []string
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) RedisEnabled() bool { return strings.TrimSpace(c.Redis.Addr) != "" }

// LoadConfig layers defaults, an optional YAML file and the environment, in
// that order. A .env file in the working directory is loaded into the
// environment first when present. configFile falls back to CONFIG_FILE.
func LoadConfig(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) == "" {
		configFile = v.GetString("CONFIG_FILE")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Port:            v.GetInt("PORT"),
		Env:             firstNonEmpty(v.GetString("APP_ENV"), v.GetString("NODE_ENV"), "development"),
		ConfigSrc:       configFile,
		MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_BYTES"),
		IngestBatchSize: v.GetInt("INGEST_BATCH_SIZE"),
		MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		Storage: objectstore.Config{
			Mode:         objectstore.Mode(v.GetString("STORAGE_MODE")),
			LocalDir:     v.GetString("UPLOAD_DIR"),
			Bucket:       v.GetString("UPLOAD_GCS_BUCKET_NAME"),
			EmulatorHost: v.GetString("STORAGE_EMULATOR_HOST"),
			Credentials:  v.GetString("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
		},
		LLM: llm.Config{
			Provider:      v.GetString("AI_PROVIDER"),
			GoogleAPIKey:  v.GetString("GOOGLE_API_KEY"),
			GoogleModel:   v.GetString("GOOGLE_MODEL"),
			GoogleBaseURL: v.GetString("GOOGLE_BASE_URL"),
			HFAPIKey:      v.GetString("HF_API_KEY"),
			HFModel:       v.GetString("HF_MODEL"),
			HFBaseURL:     v.GetString("HF_BASE_URL"),
			OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
			OpenAIModel:   v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			Timeout:       time.Duration(v.GetInt("AI_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: bus.RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Version:     v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Headers:     v.GetString("OTEL_EXPORTER_OTLP_HEADERS"),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLE_RATIO"),
		},
		Log: logger.Options{
			Mode:       v.GetString("LOG_MODE"),
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
	cfg.Otel.Environment = cfg.Env

	db, err := resolveDBConfig(v)
	if err != nil {
		return Config{}, err
	}
	cfg.DB = db

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT=%d", cfg.Port)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if err := objectstore.Validate(cfg.Storage); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("DB_DIALECT", dbpkg.DialectPostgres)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SQLITE_PATH", defaultSQLitePath)
	v.SetDefault("STORAGE_MODE", string(objectstore.ModeLocal))
	v.SetDefault("UPLOAD_DIR", defaultUploadDir)
	v.SetDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	v.SetDefault("AI_PROVIDER", llm.ProviderGoogle)
	v.SetDefault("AI_TIMEOUT_SECONDS", 60)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("OTEL_SERVICE_NAME", "datagrid-backend")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_LEVEL", "info")
}

// resolveDBConfig prefers DATABASE_URL; without it postgres needs the
// discrete DB_* settings.
func resolveDBConfig(v *viper.Viper) (dbpkg.Config, error) {
	cfg := dbpkg.Config{
		Dialect:      strings.ToLower(strings.TrimSpace(v.GetString("DB_DIALECT"))),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
	switch cfg.Dialect {
	case dbpkg.DialectSQLite:
		cfg.DSN = firstNonEmpty(v.GetString("DATABASE_URL"), v.GetString("SQLITE_PATH"))
		return cfg, nil
	case dbpkg.DialectPostgres:
	default:
		return dbpkg.Config{}, fmt.Errorf("unsupported DB_DIALECT %q", cfg.Dialect)
	}

	if dsn := strings.TrimSpace(v.GetString("DATABASE_URL")); dsn != "" {
		cfg.DSN = dsn
		return cfg, nil
	}
	var missing []string
	for _, key := range []string{"DB_USER", "DB_PASS", "DB_HOST"} {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return dbpkg.Config{}, fmt.Errorf("missing database settings: set DATABASE_URL or %s", strings.Join(missing, ", "))
	}
	cfg.DSN = dbpkg.PostgresDSN(
		v.GetString("DB_HOST"),
		v.GetString("DB_PORT"),
		v.GetString("DB_USER"),
		v.GetString("DB_PASS"),
		firstNonEmpty(v.GetString("DB_NAME"), "datagrid"),
		v.GetBool("DB_SSL"),
	)
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
