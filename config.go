package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const appName = "vaporz"

type Config struct {
	Targets            []TargetSpec `mapstructure:"targets"`
	DryRun             bool         `mapstructure:"dry_run"`
	Workers            int          `mapstructure:"workers"`
	MeasureConcurrency int          `mapstructure:"measure_concurrency"`
	Log                LogConfig    `mapstructure:"log"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"` // empty disables logging
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxFiles   int    `mapstructure:"max_files"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func resolveConfigPath(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	for _, candidate := range defaultConfigPaths() {
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func defaultConfigPaths() []string {
	paths := []string{}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, appName, "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, appName+".log")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dry_run", false)
	v.SetDefault("workers", 0)
	v.SetDefault("measure_concurrency", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_files", 3)
	v.SetDefault("log.max_age_days", 30)
}

// loadConfig reads the TOML file at path, if any, and layers VAPORZ_*
// environment variables over it.
func loadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "config validation failed")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Workers < 0 {
		return errors.New("config: workers must be >= 0")
	}
	if c.MeasureConcurrency < 0 {
		return errors.New("config: measure_concurrency must be >= 0")
	}
	if !validLevel(c.Log.Level) {
		return errors.Newf("config: invalid log level %q: must be one of: debug, info, warn, error", c.Log.Level)
	}
	if !validFormat(c.Log.Format) {
		return errors.Newf("config: invalid log format %q: must be text or json", c.Log.Format)
	}
	return validateTargets(c.Targets)
}

// EffectiveTargets merges the user's targets over the built-in ones and
// keeps only the named ones when names is non-empty.
func (c Config) EffectiveTargets(names []string) ([]TargetSpec, error) {
	defaults, err := defaultTargets()
	if err != nil {
		return nil, err
	}
	targets := filterTargets(mergeTargets(defaults, c.Targets), names)
	if len(targets) == 0 {
		return nil, errors.Newf("no targets match %s", strings.Join(names, ","))
	}
	return targets, nil
}
