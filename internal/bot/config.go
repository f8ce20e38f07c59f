package bot

import (
	"github.com/caarlos0/env/v11"
)

// Config is the bot-level configuration read from the environment.
// Module configuration lives with each module; see ConfigurableModule.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`
}

// LoadConfig parses the environment into a Config. It fails when a
// required variable is missing or empty.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
