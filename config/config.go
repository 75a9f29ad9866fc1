package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kndndrj/statpipe/core"
)

const envPrefix = "STATPIPE"

type Config struct {
	Log         LogConfig                `mapstructure:"log"`
	Concurrency int                      `mapstructure:"concurrency"`
	Services    map[string]ServiceConfig `mapstructure:"services"`
	Cache       CacheConfig              `mapstructure:"cache"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServiceConfig points a service name at its stat endpoint. The endpoint
// scheme selects the adapter.
type ServiceConfig struct {
	Endpoint  string   `mapstructure:"endpoint"`
	Resources []string `mapstructure:"resources"`
}

// CacheConfig enables the stat response cache when URL is set.
type CacheConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"logfmt", "json"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "logfmt")
	v.SetDefault("concurrency", 4)
	v.SetDefault("cache.url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
}

// Load reads the configuration file at path. An empty path searches for
// statpipe.yaml in the working directory and $HOME/.config/statpipe.
// STATPIPE_ prefixed environment variables override file values, e.g.
// STATPIPE_LOG_LEVEL or STATPIPE_SERVICES_IDENTITY_ENDPOINT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("statpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/statpipe")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if len(c.Services) == 0 {
		errs = append(errs, errors.New("no services configured"))
	}
	for _, name := range c.serviceNames() {
		if strings.TrimSpace(c.Services[name].Endpoint) == "" {
			errs = append(errs, fmt.Errorf("service %q has no endpoint", name))
		}
	}

	if !contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log level: %q (allowed: %s)", c.Log.Level, strings.Join(logLevels, ", ")))
	}
	if !contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("invalid log format: %q (allowed: %s)", c.Log.Format, strings.Join(logFormats, ", ")))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive: %d", c.Concurrency))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative: %s", c.Cache.TTL))
	}

	return errors.Join(errs...)
}

// ServiceParams returns the configured services ordered by name.
func (c *Config) ServiceParams() []*core.ServiceParams {
	params := make([]*core.ServiceParams, 0, len(c.Services))
	for _, name := range c.serviceNames() {
		svc := c.Services[name]
		params = append(params, &core.ServiceParams{
			Name:      name,
			URL:       svc.Endpoint,
			Resources: svc.Resources,
		})
	}
	return params
}

func (c *Config) serviceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
