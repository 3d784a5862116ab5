package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CHALLENGED_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CHALLENGED_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "CHALLENGED_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CHALLENGED_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.AdminAPIKey, "CHALLENGED_SERVER_ADMIN_API_KEY")
	setInt(&cfg.Server.RateLimit, "CHALLENGED_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "CHALLENGED_SERVER_RATE_WINDOW")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CHALLENGED_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CHALLENGED_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CHALLENGED_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CHALLENGED_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CHALLENGED_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CHALLENGED_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CHALLENGED_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CHALLENGED_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CHALLENGED_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CHALLENGED_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CHALLENGED_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CHALLENGED_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CHALLENGED_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CHALLENGED_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CHALLENGED_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CHALLENGED_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.SummaryTTLSecs, "CHALLENGED_REDIS_SUMMARY_TTL_SECS")

	// ── Solana ──
	setStr(&cfg.Solana.RPCURL, "CHALLENGED_SOLANA_RPC_URL")
	setDuration(&cfg.Solana.RequestTimeout, "CHALLENGED_SOLANA_REQUEST_TIMEOUT")
	setDuration(&cfg.Solana.ProbeInterval, "CHALLENGED_SOLANA_PROBE_INTERVAL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "CHALLENGED_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CHALLENGED_S3_REGION")
	setStr(&cfg.S3.Bucket, "CHALLENGED_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CHALLENGED_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CHALLENGED_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "CHALLENGED_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "CHALLENGED_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "CHALLENGED_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "CHALLENGED_ARCHIVE_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "CHALLENGED_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
