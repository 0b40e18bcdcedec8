package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`

	Mongo MongoConfig
	Redis RedisConfig

	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`

	FrontendCallbackURL string `env:"FRONTEND_CALLBACK_URL" envDefault:"http://localhost:3000/auth/callback"`
	BaseURL             string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	GitHub OAuthConfig `envPrefix:"GITHUB_"`
	Google OAuthConfig `envPrefix:"GOOGLE_"`

	Admin AdminConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/?directConnection=true"`
	Database    string `env:"MONGO_DATABASE" envDefault:"storefront"`
	ReplicaSet  string `env:"MONGO_REPLSET" envDefault:"rs0"`
	ReplSetHost string `env:"MONGO_REPLSET_HOST" envDefault:"localhost:27017"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// AdminConfig describes the account created by the create-admin script.
type AdminConfig struct {
	Email     string `env:"ADMIN_EMAIL" envDefault:"admin@storefront.local"`
	Password  string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	FirstName string `env:"ADMIN_FIRST_NAME" envDefault:"Admin"`
	LastName  string `env:"ADMIN_LAST_NAME" envDefault:"User"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=%s", DriverPostgres)
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required when DATABASE_DRIVER=%s", DriverMongo)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}
