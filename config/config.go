// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root-level settings struct, a mix of flag values and
// environment overrides bound through Viper.
type Config struct {
	// the directory the final compressed FASTQ files are written to
	OutDir string `mapstructure:"outdir"`

	// optional remote destination: an http(s) base URL or a directory
	Dest string `mapstructure:"dest"`

	// maximum number of accessions processed at once
	Workers int `mapstructure:"workers"`

	// additional attempts after the first for retryable failures
	Retries uint64 `mapstructure:"retries"`

	// root for per-accession temp workdirs; defaults to OutDir
	TempRoot string `mapstructure:"temp"`

	// merge matched mates into one interleaved file per accession
	Interleave bool `mapstructure:"interleave"`

	// initial backoff interval between retry attempts
	RetryInterval time.Duration `mapstructure:"retry-interval"`

	// log at debug level
	Verbose bool `mapstructure:"verbose"`
}

// New returns a Config populated from Viper settings.
func New() (Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode settings: %w", err)
	}
	return c, c.check()
}

func (c Config) check() error {
	if c.OutDir == "" {
		return fmt.Errorf("an output directory is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
