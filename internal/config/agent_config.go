package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AgentConfig is the process-level configuration loaded at startup via
// viper's file-then-environment-overlay pattern.
type AgentConfig struct {
	HostID       string        `mapstructure:"host_id"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	AdminAddr    string        `mapstructure:"admin_addr"`
	Log          LogConfig     `mapstructure:"log"`
}

// LogConfig feeds pkg/logger.Config directly.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoadAgentConfig reads configPath (if non-empty) as a YAML file, then
// overlays environment variables (RECOVERYAGENT_HOST_ID, etc.).
func LoadAgentConfig(configPath string) (*AgentConfig, error) {
	v := viper.New()
	setAgentDefaults(v)

	v.SetEnvPrefix("recoveryagent")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var cfg AgentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setAgentDefaults(v *viper.Viper) {
	v.SetDefault("host_id", "localhost")
	v.SetDefault("tick_interval", "60s")
	v.SetDefault("admin_addr", "127.0.0.1:8770")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
}
