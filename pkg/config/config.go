// Package config loads policymap settings from a TOML file and the
// environment.
//
// Settings are resolved in increasing precedence: built-in defaults, the
// config file, environment variables, and finally command-line flags (applied
// by the caller after Load). A missing config file is not an error.
//
// Example policymap.toml:
//
//	data_dir = "data"
//
//	[expiry]
//	warning_days = 60
//	stale_days = 180
//	report_path = "expiry-report.md"
//
//	[server]
//	addr = ":8080"
//	watch = true
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/expiry"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "policymap.toml"

// Environment variables that override file settings.
const (
	EnvDataDir = "POLICYMAP_DATA_DIR"
	EnvAddr    = "POLICYMAP_ADDR"
)

const (
	defaultDataDir    = "data"
	defaultAddr       = ":8080"
	defaultReportPath = "expiry-report.md"
	ciReportPath      = "/tmp/expiry-report.md"
)

// Config holds every setting.
type Config struct {
	DataDir string       `toml:"data_dir"`
	Expiry  ExpiryConfig `toml:"expiry"`
	Server  ServerConfig `toml:"server"`
}

// ExpiryConfig configures the expiry report.
type ExpiryConfig struct {
	WarningDays int    `toml:"warning_days"`
	StaleDays   int    `toml:"stale_days"`
	ReportPath  string `toml:"report_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir: defaultDataDir,
		Expiry: ExpiryConfig{
			WarningDays: expiry.DefaultWarningDays,
			StaleDays:   expiry.DefaultStaleDays,
			ReportPath:  DefaultReportPath(),
		},
		Server: ServerConfig{Addr: defaultAddr},
	}
}

// DefaultReportPath is where the expiry report goes when nothing else is
// configured. CI runs write to /tmp so the workflow can pick the file up.
func DefaultReportPath() string {
	if os.Getenv("CI") != "" {
		return ciReportPath
	}
	return defaultReportPath
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path means DefaultFile; only an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "data_dir cannot be empty")
	}
	if c.Expiry.WarningDays < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "expiry.warning_days cannot be negative (got %d)", c.Expiry.WarningDays)
	}
	if c.Expiry.StaleDays < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "expiry.stale_days cannot be negative (got %d)", c.Expiry.StaleDays)
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	return nil
}

// ExpiryOptions converts the expiry settings into report options for today.
func (c Config) ExpiryOptions() expiry.Options {
	opts := expiry.DefaultOptions()
	opts.WarningDays = c.Expiry.WarningDays
	opts.StaleDays = c.Expiry.StaleDays
	return opts
}
