// Package config contains go-iusync configuration definitions
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-iusync/buffer"
	"github.com/spacemeshos/go-iusync/log"
	"github.com/spacemeshos/go-iusync/metrics"
	"github.com/spacemeshos/go-iusync/p2p"
)

// Config defines the top level configuration of an iusync process.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Buffer     buffer.Config  `mapstructure:"buffer"`
	P2P        p2p.Config     `mapstructure:"p2p"`
	Metrics    metrics.Config `mapstructure:"metrics"`
	LOGGING    log.Config     `mapstructure:"logging"`
}

// BaseConfig defines the options that are not tied to a component.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`
	Preset     string `mapstructure:"preset"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Buffer:  buffer.DefaultConfig(),
		P2P:     p2p.DefaultConfig(),
		Metrics: metrics.DefaultConfig(),
		LOGGING: log.DefaultConfig(),
	}
}

// DecodeHook converts the string forms used in config files and flags.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// LoadConfig reads the config file into vip. The format is derived from the file extension.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		return nil
	}
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", fileLocation, err)
	}
	return nil
}

// Unmarshal applies the values loaded into vip on top of cfg.
func Unmarshal(vip *viper.Viper, cfg *Config) error {
	if err := vip.Unmarshal(cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
