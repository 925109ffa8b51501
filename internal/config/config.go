package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName      string
	Environment  string
	HTTP         HTTPConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Buffer       BufferConfig
	Context      ContextConfig
	Logger       LoggerConfig
	Migrations   MigrationsConfig
	Bootstrap    BootstrapConfig
	NATS         NATSConfig
	Narrative    NarrativeConfig
	Notify       NotifyConfig
	Scoring      ScoringConfig
	Segmentation SegmentationConfig
	Attribution  AttributionConfig
	Cache        CacheConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type BufferConfig struct {
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
	BatchSize      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// BootstrapConfig seeds the default workspace and its API key on startup.
type BootstrapConfig struct {
	WorkspaceID   string
	WorkspaceName string
	APIKey        string
}

type NATSConfig struct {
	URL   string
	Token string
}

// NarrativeConfig configures the optional text generator used for account insights.
type NarrativeConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

type NotifyConfig struct {
	TelegramToken  string
	TelegramChatID string
	TelegramURL    string
}

// ScoringConfig overrides individual weights of the default scheme.
type ScoringConfig struct {
	IntentWeights     map[string]float64
	EngagementWeights map[string]float64
	DefaultIntent     float64
	DefaultEngagement float64
}

type SegmentationConfig struct {
	HighIntentScore  float64
	ActiveWithinDays int
	DormantAfterDays int
	MinVisits        int
}

type AttributionConfig struct {
	LookbackDays   int
	UniqueChannels bool
}

type CacheConfig struct {
	ReportTTL time.Duration
	APIKeyTTL time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "revenue-engine"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "revenue"),
			User:            getString("DB_USER", "revenue"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			Issuer:   getString("JWT_ISSUER", "revenue-engine"),
			TokenTTL: getDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/buffer.db"),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
			BatchSize:      getInt("BUFFER_BATCH_SIZE", 50),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    os.Getenv("MIGRATIONS_PATH"),
		},
		Bootstrap: BootstrapConfig{
			WorkspaceID:   getString("DEFAULT_WORKSPACE_ID", "default"),
			WorkspaceName: getString("DEFAULT_WORKSPACE_NAME", "Default workspace"),
			APIKey:        os.Getenv("DEFAULT_API_KEY"),
		},
		NATS: NATSConfig{
			URL:   os.Getenv("NATS_URL"),
			Token: os.Getenv("NATS_TOKEN"),
		},
		Narrative: NarrativeConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     getString("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			BaseURL:   getString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			MaxTokens: getInt("ANTHROPIC_MAX_TOKENS", 400),
			Timeout:   getDuration("NARRATIVE_TIMEOUT_SECONDS", 10*time.Second),
		},
		Notify: NotifyConfig{
			TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
			TelegramURL:    getString("TELEGRAM_API_URL", "https://api.telegram.org"),
		},
		Scoring: ScoringConfig{
			IntentWeights:     getWeights("SCORING_INTENT_WEIGHTS"),
			EngagementWeights: getWeights("SCORING_ENGAGEMENT_WEIGHTS"),
			DefaultIntent:     getFloat("SCORING_DEFAULT_INTENT", 0),
			DefaultEngagement: getFloat("SCORING_DEFAULT_ENGAGEMENT", 0),
		},
		Segmentation: SegmentationConfig{
			HighIntentScore:  getFloat("SEGMENT_HIGH_INTENT_SCORE", 70),
			ActiveWithinDays: getInt("SEGMENT_ACTIVE_WITHIN_DAYS", 30),
			DormantAfterDays: getInt("SEGMENT_DORMANT_AFTER_DAYS", 30),
			MinVisits:        getInt("SEGMENT_MIN_VISITS", 0),
		},
		Attribution: AttributionConfig{
			LookbackDays:   getInt("ATTRIBUTION_LOOKBACK_DAYS", 90),
			UniqueChannels: getBool("ATTRIBUTION_UNIQUE_CHANNELS", false),
		},
		Cache: CacheConfig{
			ReportTTL: getDuration("REPORT_CACHE_TTL", time.Minute),
			APIKeyTTL: getDuration("API_KEY_CACHE_TTL", 10*time.Minute),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if cfg.JWT.Secret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getWeights parses "form_submit=10,signup=8" into a map. Malformed pairs are skipped.
func getWeights(key string) map[string]float64 {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(val, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if name == "" || err != nil {
			continue
		}
		out[name] = w
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
