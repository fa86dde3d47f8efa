// Package config resolves blkzone runtime settings from the environment and an
// optional dotenv file.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Environment keys
const (
	EnvFile      = "BLKZONE_ENV_FILE"
	EnvSysfsRoot = "BLKZONE_SYSFS_ROOT"
	EnvLogLevel  = "BLKZONE_LOG_LEVEL"
)

// DefaultEnvFile is read when $BLKZONE_ENV_FILE is unset. A missing file is not an error.
const DefaultEnvFile = "/etc/default/blkzone"

// MaxLogLevel is the quietest accepted log level. Warnings are part of the
// command's output and cannot be silenced.
const MaxLogLevel = zerolog.WarnLevel

// Config holds settings that are not part of the command line.
type Config struct {
	SysfsRoot string
	LogLevel  zerolog.Level
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SysfsRoot: "/sys",
		LogLevel:  zerolog.InfoLevel,
	}
}

// Load applies the dotenv file and environment on top of Default. Variables
// already present in the environment win over the file.
func Load() (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv(EnvFile))
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, errors.Wrapf(err, "load %s", path)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvSysfsRoot)); v != "" {
		cfg.SysfsRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return cfg, errors.Wrapf(err, "%s=%q", EnvLogLevel, v)
		}
		if lvl > MaxLogLevel {
			return cfg, errors.Errorf("%s=%q: level must not be above %s", EnvLogLevel, v, MaxLogLevel)
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}
