package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/hscd/internal/domain/grapher"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the project configuration in .hscd/config.yaml.
// Every key can be overridden from the environment as HSCD_<SECTION>_<KEY>,
// e.g. HSCD_QUERY_HINT_STEPS=40.
type Config struct {
	Dataset  string `mapstructure:"dataset" yaml:"dataset"`
	HTTPPort int    `mapstructure:"http_port" yaml:"http_port"` // 0 = derived from project root
	Watch    bool   `mapstructure:"watch" yaml:"watch"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	Query QueryConfig    `mapstructure:"query" yaml:"query"`
	Graph grapher.Config `mapstructure:"graph" yaml:"graph"`
}

// QueryConfig holds query executor defaults.
type QueryConfig struct {
	HintSteps  int     `mapstructure:"hint_steps" yaml:"hint_steps"`
	MaxResults int     `mapstructure:"max_results" yaml:"max_results"`
	MinScore   float64 `mapstructure:"min_score" yaml:"min_score"`
	CacheSize  int     `mapstructure:"cache_size" yaml:"cache_size"` // 0 disables the response cache
	Workers    int     `mapstructure:"workers" yaml:"workers"`       // per-query projection goroutines
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Dataset:  "default",
		Watch:    true,
		LogLevel: "info",
		Query: QueryConfig{
			HintSteps:  20,
			MaxResults: 100,
			CacheSize:  256,
			Workers:    8,
		},
		Graph: grapher.DefaultConfig(),
	}
}

// LoadConfig reads path (if it exists) over the defaults, then applies
// HSCD_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("HSCD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("http_port", d.HTTPPort)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("query.hint_steps", d.Query.HintSteps)
	v.SetDefault("query.max_results", d.Query.MaxResults)
	v.SetDefault("query.min_score", d.Query.MinScore)
	v.SetDefault("query.cache_size", d.Query.CacheSize)
	v.SetDefault("query.workers", d.Query.Workers)

	v.SetDefault("graph.use_local_scale", d.Graph.UseLocalScale)
	v.SetDefault("graph.use_relative_scale", d.Graph.UseRelativeScale)
	v.SetDefault("graph.display_type", string(d.Graph.DisplayType))
	v.SetDefault("graph.range.min", d.Graph.Range.Min)
	v.SetDefault("graph.range.max", d.Graph.Range.Max)
	v.SetDefault("graph.steps", d.Graph.Steps)
	v.SetDefault("graph.padding", d.Graph.Padding)
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("%w: empty dataset name", ErrInvalidConfig)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%w: http_port %d", ErrInvalidConfig, c.HTTPPort)
	}
	if c.Query.HintSteps <= 0 {
		return fmt.Errorf("%w: query.hint_steps %d", ErrInvalidConfig, c.Query.HintSteps)
	}
	if c.Query.MaxResults <= 0 {
		return fmt.Errorf("%w: query.max_results %d", ErrInvalidConfig, c.Query.MaxResults)
	}
	if c.Query.CacheSize < 0 {
		return fmt.Errorf("%w: query.cache_size %d", ErrInvalidConfig, c.Query.CacheSize)
	}
	if c.Query.Workers <= 0 {
		return fmt.Errorf("%w: query.workers %d", ErrInvalidConfig, c.Query.Workers)
	}
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("%w: graph: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
