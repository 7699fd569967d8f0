package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// AuthConfig selects and parameterizes the auth backend. Mode picks the
// implementation at construction time: "simulated" runs the local
// directory-backed simulation, "http" talks to a real backend at BackendURL.
type AuthConfig struct {
	Mode          string        `env:"AUTH_MODE,         default=simulated"`
	BackendURL    string        `env:"AUTH_BACKEND_URL,  default=https://api.aiemr.example.com/v1"`
	JWTSecret     string        `env:"JWT_SECRET,        default=dev-only-secret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,         default=24h"`
	MinSecretLen  int           `env:"MIN_SECRET_LEN,    default=6"`
	SeedDemoUsers bool          `env:"SEED_DEMO_USERS,   default=true"`
	Latency       time.Duration `env:"SIMULATED_LATENCY, default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=emr_console"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// Development reports whether this process runs with development defaults
// (pretty logs, demo account seeding).
func (c *Config) Development() bool {
	return c.Env == "development"
}
