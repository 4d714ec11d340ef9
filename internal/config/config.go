package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string `mapstructure:"mode"`
	TCPAddr        string `mapstructure:"tcp_addr"`
	HTTPAddr       string `mapstructure:"http_addr"`
	DictionaryPath string `mapstructure:"dictionary_path"`
	QueueSize      int    `mapstructure:"queue_size"`
	ReadLimit      int    `mapstructure:"read_limit"`
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
	v.SetDefault("tcp_addr", ":5555")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("dictionary_path", "./dictionary.txt")
	v.SetDefault("queue_size", 100)
	v.SetDefault("read_limit", 32768)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
