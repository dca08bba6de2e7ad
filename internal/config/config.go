package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`

	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	OverflowRoom      string `mapstructure:"overflow_room"`
	OverflowCapacity  int    `mapstructure:"overflow_capacity"`
	OverflowTransport string `mapstructure:"overflow_transport"`

	CleanupGrace    time.Duration `mapstructure:"cleanup_grace"`
	TransitionTotal time.Duration `mapstructure:"transition_total"`
	TransitionWarn  time.Duration `mapstructure:"transition_warn"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8000)
	v.SetDefault("read_limit", 4096)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("overflow_room", "overflow-bus")
	v.SetDefault("overflow_capacity", 15)
	v.SetDefault("overflow_transport", "bus")
	v.SetDefault("cleanup_grace", "5s")
	v.SetDefault("transition_total", "3m")
	v.SetDefault("transition_warn", "20s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
