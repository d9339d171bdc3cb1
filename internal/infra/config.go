package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	StoragePath        string
	GeminiAPIKey       string
	GeminiBaseURL      string
	VeoModel           string
	PollInterval       time.Duration
	MaxWait            time.Duration
	GeminiHTTPTimeout  time.Duration
	BlobCapacity       int
	MaxUploadBytes     int64
	MaxInflight        int
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	TrustProxyHeaders  bool
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A missing API key is not an error here: generation reports it before any network call.
func LoadConfig() (*Config, error) {
	// Both files are optional.
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StoragePath:        getEnv("STORAGE_PATH", "./videos"),
		GeminiAPIKey:       firstEnv("GEMINI_API_KEY", "API_KEY"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VeoModel:           getEnv("VEO_MODEL", "veo-2.0-generate-001"),
		PollInterval:       getEnvSeconds("VEO_POLL_INTERVAL_SECONDS", 10),
		MaxWait:            getEnvSeconds("VEO_MAX_WAIT_SECONDS", 0),
		GeminiHTTPTimeout:  getEnvSeconds("GEMINI_HTTP_TIMEOUT_SECONDS", 120),
		BlobCapacity:       getEnvInt("BLOB_CAPACITY", 8),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		MaxInflight:        getEnvInt("MAX_INFLIGHT_GENERATIONS", 1),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:    getEnvSeconds("HTTP_READ_TIMEOUT_SECONDS", 30),
		// Generation requests stay open until the remote job resolves.
		HTTPWriteTimeout:  getEnvSeconds("HTTP_WRITE_TIMEOUT_SECONDS", 0),
		HTTPIdleTimeout:   getEnvSeconds("HTTP_IDLE_TIMEOUT_SECONDS", 60),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 6),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxWait < 0 {
		cfg.MaxWait = 0
	}
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = 1
	}
	if cfg.BlobCapacity <= 0 {
		cfg.BlobCapacity = 1
	}

	return cfg, nil
}

// HasDatabase reports whether the optional Postgres integration is configured.
func (c *Config) HasDatabase() bool {
	return c != nil && c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Second * time.Duration(getEnvInt(key, fallback))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
