package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PeriodKeyLegacy     = "legacy"
	PeriodKeyNormalized = "normalized"

	AuthzEnforce  = "enforce"
	AuthzShadow   = "shadow"
	AuthzDisabled = "disabled"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	DBMaxConns              int32
	JWTSecret               string
	DataEncryptionKey       string
	Environment             string
	SeedTenantName          string
	SeedAdminEmail          string
	SeedAdminPassword       string
	SeedFixturesPath        string
	EmailFrom               string
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUser                string
	SMTPPassword            string
	SMTPUseTLS              bool
	RunMigrations           bool
	RunSeed                 bool
	MigrationsDir           string
	MaxBodyBytes            int64
	MaxUploadBytes          int64
	RateLimitPerMinute      int
	RedisURL                string
	MetricsEnabled          bool
	UploadDir               string
	PayslipDir              string
	CVDir                   string
	PublicBaseURL           string
	PayrollPeriodKeyMode    string
	JobExpiryCron           string
	FailedExportRetention   time.Duration
	FailedExportCleanupCron string
	IdempotencyWindow       time.Duration
	AuthzMode               string
	LogLevel                string
	LogFile                 string
	LogMaxSizeMB            int
	LogMaxBackups           int
	LogMaxAgeDays           int
}

// Load reads an optional dotenv file, then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)

	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DBMaxConns:              int32(getEnvInt("DB_MAX_CONNS", 10)),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		DataEncryptionKey:       getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:             getEnv("APP_ENV", "development"),
		SeedTenantName:          getEnv("SEED_TENANT_NAME", "Default Company"),
		SeedAdminEmail:          getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:       getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedFixturesPath:        getEnv("SEED_FIXTURES_PATH", ""),
		EmailFrom:               getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:            getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvInt("SMTP_PORT", 587),
		SMTPUser:                getEnv("SMTP_USER", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:              getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                 getEnvBool("RUN_SEED", true),
		MigrationsDir:           getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:            int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RedisURL:                getEnv("REDIS_URL", ""),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		UploadDir:               getEnv("UPLOAD_DIR", "storage/uploads"),
		PayslipDir:              getEnv("PAYSLIP_DIR", "storage/payslips"),
		CVDir:                   getEnv("CV_DIR", "storage/cvs"),
		PublicBaseURL:           getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		PayrollPeriodKeyMode:    strings.ToLower(getEnv("PAYROLL_PERIOD_KEY_MODE", PeriodKeyLegacy)),
		JobExpiryCron:           getEnv("JOB_EXPIRY_CRON", "0 0 1 * * *"),
		FailedExportRetention:   getEnvDuration("FAILED_EXPORT_RETENTION", 30*24*time.Hour),
		FailedExportCleanupCron: getEnv("FAILED_EXPORT_CLEANUP_CRON", "0 30 2 * * *"),
		IdempotencyWindow:       getEnvDuration("IDEMPOTENCY_WINDOW", 24*time.Hour),
		AuthzMode:               strings.ToLower(getEnv("AUTHZ_MODE", AuthzEnforce)),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 getEnv("LOG_FILE", ""),
		LogMaxSizeMB:            getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:           getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:           getEnvInt("LOG_MAX_AGE_DAYS", 30),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	switch c.PayrollPeriodKeyMode {
	case PeriodKeyLegacy, PeriodKeyNormalized:
	default:
		return fmt.Errorf("PAYROLL_PERIOD_KEY_MODE must be %q or %q", PeriodKeyLegacy, PeriodKeyNormalized)
	}
	switch c.AuthzMode {
	case AuthzEnforce, AuthzShadow, AuthzDisabled:
	default:
		return fmt.Errorf("AUTHZ_MODE must be one of %s, %s, %s", AuthzEnforce, AuthzShadow, AuthzDisabled)
	}
	return nil
}
