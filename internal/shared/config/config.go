package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"constructia-backend/internal/shared/telemetry"
)

// Config holds application configuration. It is built once at startup and
// passed explicitly into every component.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOBucket     string
	MinIOUseSSL     bool

	JWTSecret string
	JWTIssuer string

	PlatformMode            string
	PlatformBaseURL         string
	PlatformTokenURL        string
	PlatformClientID        string
	PlatformStubSuccessRate float64
	PlatformStubLatency     time.Duration

	HandoffTimeout        time.Duration
	HandoffRetryAttempts  int
	HandoffRetryBaseDelay time.Duration
	HandoffRetryMaxDelay  time.Duration
	RetentionWindow       time.Duration

	SweepInterval   time.Duration
	SweepBatchLimit int
	AuditBuffer     int

	SQSQueueURL string
	NATSURL     string
	NATSStream  string
	RedisURL    string
	LockTTL     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Error("config.missing", map[string]any{"key": "DATABASE_URL"})
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinIOEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:     getEnv("MINIO_BUCKET", "documents"),
		MinIOUseSSL:     getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "constructia"),

		PlatformMode:            normalizePlatformMode(getEnv("PLATFORM_MODE", "stub")),
		PlatformBaseURL:         getEnv("PLATFORM_BASE_URL", ""),
		PlatformTokenURL:        getEnv("PLATFORM_TOKEN_URL", ""),
		PlatformClientID:        getEnv("PLATFORM_CLIENT_ID", "constructia"),
		PlatformStubSuccessRate: getEnvFloat("PLATFORM_STUB_SUCCESS_RATE", 0.9),
		PlatformStubLatency:     getEnvDuration("PLATFORM_STUB_LATENCY", 2*time.Second),

		HandoffTimeout:        getEnvDuration("HANDOFF_TIMEOUT", 30*time.Second),
		HandoffRetryAttempts:  getEnvInt("HANDOFF_RETRY_ATTEMPTS", 3),
		HandoffRetryBaseDelay: getEnvDuration("HANDOFF_RETRY_BASE_DELAY", 500*time.Millisecond),
		HandoffRetryMaxDelay:  getEnvDuration("HANDOFF_RETRY_MAX_DELAY", 8*time.Second),
		RetentionWindow:       getEnvDuration("RETENTION_WINDOW", 7*24*time.Hour),

		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),
		SweepBatchLimit: getEnvInt("SWEEP_BATCH_LIMIT", 500),
		AuditBuffer:     getEnvInt("AUDIT_BUFFER", 256),

		SQSQueueURL: getEnv("CT_SQS_QUEUE_URL", ""),
		NATSURL:     getEnv("NATS_URL", ""),
		NATSStream:  getEnv("NATS_STREAM", "constructia-audit"),
		RedisURL:    getEnv("REDIS_URL", ""),
		LockTTL:     getEnvDuration("LOCK_TTL", 2*time.Minute),
	}
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizePlatformMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "http":
		return "http"
	default:
		return "stub"
	}
}
