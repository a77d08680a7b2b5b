package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, embedded migrations run at startup before the server accepts traffic.
	MigrateOnStart bool

	// How often expired session rows are reaped. Zero disables the janitor;
	// expiry is still enforced lazily on refresh.
	SessionJanitorInterval time.Duration

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, WEBCHAT_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-token hashing must be HMAC-based.
	RequireTokenHMAC bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	MetricsEnabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("WEBCHAT_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("WEBCHAT_LOG_LEVEL", "info"),
		LogFormat: EnvString("WEBCHAT_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("WEBCHAT_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("WEBCHAT_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("WEBCHAT_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("WEBCHAT_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("WEBCHAT_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("WEBCHAT_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("WEBCHAT_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("WEBCHAT_DB_MIN_CONNS", 0),

		MigrateOnStart: EnvBool("WEBCHAT_MIGRATE_ON_START", true),

		SessionJanitorInterval: EnvDuration("WEBCHAT_SESSION_JANITOR_INTERVAL", time.Hour),

		ReadinessRequireDB: EnvBool("WEBCHAT_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("WEBCHAT_REQUIRE_TOKEN_HMAC", false),

		CORSAllowedOrigins:   EnvCSV("WEBCHAT_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("WEBCHAT_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("WEBCHAT_CORS_MAX_AGE_SECONDS", 600),

		MetricsEnabled: EnvBool("WEBCHAT_METRICS_ENABLED", true),
	}
}
