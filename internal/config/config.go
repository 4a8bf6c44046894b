package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration, layered from defaults, an
// optional config file, and EASEL_-prefixed environment variables.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	Run    RunConfig    `mapstructure:"run"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	Debug        bool     `mapstructure:"debug"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type ModelConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Name        string        `mapstructure:"name"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RunConfig struct {
	MaxTurns int `mapstructure:"max_turns"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration. path, when non-empty, names an explicit config
// file; otherwise easel.yaml is searched in the working directory and
// ~/.easel. A missing file is not an error: defaults plus environment
// variables are a complete configuration.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("model.base_url", "https://api.openai.com/v1")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.temperature", 0.2)
	v.SetDefault("model.timeout", 120*time.Second)
	v.SetDefault("run.max_turns", 4)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("EASEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("easel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.easel")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
