package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis RedisConfig

	Casper struct {
		RPCURL  string        `env:"CASPER_RPC_URL" envDefault:"http://localhost:7777/rpc"`
		Timeout time.Duration `env:"CASPER_RPC_TIMEOUT" envDefault:"15s"`
	}

	Oracle struct {
		BaseURL string        `env:"ORACLE_BASE_URL" envDefault:"https://event-store-api-clarity-mainnet.make.services"`
		APIKey  string        `env:"ORACLE_API_KEY" envDefault:""`
		Timeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"8s"`
	}

	Auth struct {
		JWTSecret    string        `env:"JWT_SECRET,required"`
		TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
		ChallengeTTL time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
	}

	Workers struct {
		SweepInterval time.Duration `env:"SURVEY_SWEEP_INTERVAL" envDefault:"1m"`
	}

	RateLimit struct {
		ActivatePerMinute int `env:"ACTIVATE_RATE_PER_MINUTE" envDefault:"10"`
	}
}

// RedisConfig is named so the platform layer can open a connection from it
// without seeing the rest of the configuration.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func Load() (*Config, error) {
	// Missing .env is fine; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
