package env

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DebugHTTP bool   `env:"PARLEY_DEBUG_HTTP"`
	LogLevel  string `env:"PARLEY_LOG_LEVEL,default=info"`

	NumListeners int  `env:"PARLEY_NUM_LISTENERS,default=1"`
	Reuseport    bool `env:"PARLEY_REUSEPORT,default=true"`
	Trace        bool `env:"PARLEY_TRACE"`

	MaxLineBytes int           `env:"PARLEY_MAX_LINE_BYTES,default=4096"`
	WriteTimeout time.Duration `env:"PARLEY_WRITE_TIMEOUT,default=10s"`

	// IdleTimeout of zero keeps idle connections open forever
	IdleTimeout time.Duration `env:"PARLEY_IDLE_TIMEOUT,default=0s"`
}

// LoadConfig reads .env.local, if there is one, and then the environment.
func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	return &config, nil
}
