// Package config loads the service configuration from the environment.
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

const (
	DefaultDatabaseURL = "postgresql://postgres:postgres@db:5432/blogdb"
	DefaultSecret      = "mysecret"
	EnvProduction      = "production"
)

// Config holds everything the service reads at startup
type Config struct {
	Port   string `json:"port"`
	AppEnv string `json:"app_env"`
	Debug  bool   `json:"debug"`

	DatabaseURL  string        `json:"database_url"`
	MaxRetries   int           `json:"db_max_retries"`
	RetryDelay   time.Duration `json:"db_retry_delay"`
	MaxOpenConns int           `json:"db_max_open_conns"`

	JWTSecret          string `json:"jwt_secret"`
	JWTAlgorithm       string `json:"jwt_algorithm"`
	JWTIssuer          string `json:"jwt_issuer"`
	TokenExpireMinutes int    `json:"token_expire_minutes"`
	BcryptCost         int    `json:"bcrypt_cost"`

	ViewsLogPath  string `json:"views_log_path"`
	ViewsBuffer   int    `json:"views_buffer"`
	ViewsWorkers  int    `json:"views_workers"`
	ViewsQueueURL string `json:"views_queue_url"`

	BlogCreateRequiresAuth bool  `json:"blog_create_requires_auth"`
	BlogDefaultOwnerID     int64 `json:"blog_default_owner_id"`
}

// Load reads .env.local and .env when present, then the environment.
// Variables already set in the environment win.
func Load() (*Config, error) {
	loadEnvFiles()

	cfg := &Config{
		Port:   getEnv("PORT", "8000"),
		AppEnv: getEnv("APP_ENV", "development"),
		Debug:  getEnvAsBool("DEBUG", false),

		DatabaseURL:  getEnv("DATABASE_URL", DefaultDatabaseURL),
		MaxRetries:   getEnvAsInt("DB_MAX_RETRIES", persistence.DefaultMaxRetries),
		RetryDelay:   getEnvAsDuration("DB_RETRY_DELAY", persistence.DefaultRetryDelay),
		MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),

		JWTSecret:          getEnv("JWT_SECRET", DefaultSecret),
		JWTAlgorithm:       strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		TokenExpireMinutes: getEnvAsInt("TOKEN_EXPIRE_MINUTES", 30),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 10),

		ViewsLogPath:  getEnv("VIEWS_LOG_PATH", "blog_views.log"),
		ViewsBuffer:   getEnvAsInt("VIEWS_BUFFER", 256),
		ViewsWorkers:  getEnvAsInt("VIEWS_WORKERS", 1),
		ViewsQueueURL: getEnv("VIEWS_QUEUE_URL", ""),

		BlogCreateRequiresAuth: getEnvAsBool("BLOG_CREATE_REQUIRES_AUTH", false),
		BlogDefaultOwnerID:     getEnvAsInt64("BLOG_DEFAULT_OWNER_ID", 1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// Validate will run validation rules
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Digit),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.MaxRetries, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.JWTSecret, validation.Required, validation.By(c.productionSecret)),
		validation.Field(&c.JWTAlgorithm, validation.Required, validation.In("HS256", "HS384", "HS512")),
		validation.Field(&c.TokenExpireMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(4), validation.Max(31)),
		validation.Field(&c.ViewsBuffer, validation.Required, validation.Min(1)),
		validation.Field(&c.ViewsWorkers, validation.Required, validation.Min(1)),
		validation.Field(&c.ViewsQueueURL, validation.By(redisURL)),
		validation.Field(&c.BlogDefaultOwnerID, validation.Required, validation.Min(int64(1))),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid configuration")
	}
	return nil
}

func (c Config) productionSecret(value any) error {
	if c.AppEnv == EnvProduction && value == DefaultSecret {
		return errors.New("the default secret must be replaced in production", errors.CategoryValidation)
	}
	return nil
}

func redisURL(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") || u.Host == "" {
		return errors.New("must be a redis:// or rediss:// url", errors.CategoryValidation)
	}
	return nil
}

// GetSigningKey returns the token signing key
func (c Config) GetSigningKey() string {
	return c.JWTSecret
}

// GetSigningMethod returns the token algorithm
func (c Config) GetSigningMethod() string {
	return c.JWTAlgorithm
}

// GetTokenExpiration returns the default token lifetime
func (c Config) GetTokenExpiration() time.Duration {
	return time.Duration(c.TokenExpireMinutes) * time.Minute
}

// GetIssuer returns the token issuer
func (c Config) GetIssuer() string {
	return c.JWTIssuer
}

// Database returns the persistence settings
func (c Config) Database() persistence.DatabaseConfig {
	return persistence.DatabaseConfig{
		URL:          c.DatabaseURL,
		MaxRetries:   c.MaxRetries,
		RetryDelay:   c.RetryDelay,
		MaxOpenConns: c.MaxOpenConns,
	}
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.JWTSecret != "" {
		c.JWTSecret = "****"
	}
	c.DatabaseURL = redactURL(c.DatabaseURL)
	c.ViewsQueueURL = redactURL(c.ViewsQueueURL)
	return c
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("2s") or whole seconds ("2")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
