package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_LOG_LEVEL controls the engine logger during the scenario
	LogLevel string `envconfig:"E2E_LOG_LEVEL" default:"DEBUG"`
	// E2E_REPLY_TIMEOUT bounds how long a scenario waits for the
	// simulated peer before failing
	ReplyTimeout time.Duration `envconfig:"E2E_REPLY_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
