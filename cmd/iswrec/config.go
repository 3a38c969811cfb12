package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/hupe1980/iswrec"
	"github.com/hupe1980/iswrec/codec"
	"github.com/hupe1980/iswrec/persistence"
	"github.com/hupe1980/iswrec/resource"
)

// Config holds the global settings read from iswrec.yaml, ISWREC_* variables
// and persistent flags.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Persist PersistConfig `mapstructure:"persist"`
	Log     LogConfig     `mapstructure:"log"`

	// Workers bounds multipole fan-out and concurrent map loads.
	Workers int `mapstructure:"workers"`
}

// StorageConfig selects the blob store holding datasets, coefficients and maps.
type StorageConfig struct {
	// Backend is one of "local", "minio" or "s3".
	Backend string `mapstructure:"backend"`
	// Root is the directory of the local backend.
	Root string `mapstructure:"root"`

	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// PersistConfig controls the coefficient file format.
type PersistConfig struct {
	Codec       string `mapstructure:"codec"`
	Compression string `mapstructure:"compression"`
	// IOLimit caps persistence throughput in bytes per second. 0 is unlimited.
	IOLimit int64 `mapstructure:"io_limit"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.root", ".")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("persist.codec", codec.Default.Name())
	v.SetDefault("persist.compression", persistence.CompressionZSTD.String())
	v.SetDefault("persist.io_limit", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("workers", 4)
}

// initViper wires defaults, the config file and the environment into v.
// A missing config file is not an error unless it was named explicitly.
func initViper(v *viper.Viper, cfgFile string) error {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("iswrec")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/iswrec")
	}

	v.SetEnvPrefix("ISWREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &cfg, nil
}

func (c *Config) logger() (*iswrec.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return iswrec.NewJSONLogger(level), nil
	case "", "text":
		return iswrec.NewTextLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
}

func (c *Config) resources() *resource.Controller {
	return resource.NewController(resource.Config{
		MaxWorkers:         int64(c.Workers),
		IOLimitBytesPerSec: c.Persist.IOLimit,
	})
}

func (c *Config) codec() (codec.Codec, error) {
	cd, ok := codec.ByName(c.Persist.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (have %s)", c.Persist.Codec, strings.Join(codec.Names(), ", "))
	}
	return cd, nil
}
