// Package config provides a reusable loader for causality engine
// configuration files and environment variables. It is versioned so that
// applications can depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/timewave-computer/causality-sub001/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a causality engine node. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Batch struct {
		MaxBatchSize     int  `mapstructure:"max_batch_size" json:"max_batch_size"`
		FlushIntervalMS  int  `mapstructure:"flush_interval_ms" json:"flush_interval_ms"`
		Compress         bool `mapstructure:"compress" json:"compress"`
		CompressionLevel int  `mapstructure:"compression_level" json:"compression_level"`
	} `mapstructure:"batch" json:"batch"`

	Cache struct {
		Size        int  `mapstructure:"size" json:"size"`
		EnableRetry bool `mapstructure:"enable_retry" json:"enable_retry"`
		MaxRetries  int  `mapstructure:"max_retries" json:"max_retries"`
	} `mapstructure:"cache" json:"cache"`

	TimeMap struct {
		BucketSizeMS    int `mapstructure:"bucket_size_ms" json:"bucket_size_ms"`
		HistoryCapacity int `mapstructure:"history_capacity" json:"history_capacity"`
	} `mapstructure:"time_map" json:"time_map"`

	Summary struct {
		DefaultStrategy string `mapstructure:"default_strategy" json:"default_strategy"`
		EpochBlocks     uint64 `mapstructure:"epoch_blocks" json:"epoch_blocks"`
	} `mapstructure:"summary" json:"summary"`

	Domains struct {
		Configured []string `mapstructure:"configured" json:"configured"`
	} `mapstructure:"domains" json:"domains"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the CAUSALITY_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("CAUSALITY_ENV", ""))
}
