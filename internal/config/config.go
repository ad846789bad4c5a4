package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment. It is
// assembled once at startup and passed into constructors; nothing reads
// env vars after Load returns.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	SentryDSN string `env:"SENTRY_DSN"`

	DatabaseURL       string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`
	RunMigrations     bool          `env:"RUN_MIGRATIONS_ON_STARTUP" envDefault:"true"`

	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"catalog-api"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"catalog-api-clients"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"60m"`

	// "*" allows any origin.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// sha256 is the compatibility scheme; pbkdf2 is opt-in and breaks
	// digests stored under sha256.
	PasswordHashScheme string `env:"PASSWORD_HASH_SCHEME" envDefault:"sha256"`
	PBKDF2Salt         string `env:"PBKDF2_SALT"`
	PBKDF2Iterations   int    `env:"PBKDF2_ITERATIONS" envDefault:"600000"`
}

func Load(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.PasswordHashScheme {
	case "sha256":
	case "pbkdf2":
		if cfg.PBKDF2Salt == "" {
			return Config{}, fmt.Errorf("PBKDF2_SALT is required when PASSWORD_HASH_SCHEME=pbkdf2")
		}
	default:
		return Config{}, fmt.Errorf("unsupported PASSWORD_HASH_SCHEME: %s", cfg.PasswordHashScheme)
	}

	return cfg, nil
}
