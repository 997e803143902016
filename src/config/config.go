// Package config loads dashboard settings from an optional YAML file with
// TRAJ_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

// EnvPrefix prefixes every environment override, e.g. TRAJ_LISTEN.
const EnvPrefix = "TRAJ"

// Config holds all dashboard settings.
type Config struct {
	DataPath    string              `yaml:"data_path" mapstructure:"data_path"`
	Listen      string              `yaml:"listen" mapstructure:"listen"`
	LogLevel    string              `yaml:"log_level" mapstructure:"log_level"`
	Countries   []string            `yaml:"countries" mapstructure:"countries"`
	Range       trajectory.DayRange `yaml:"range" mapstructure:"range"`
	Chart       ChartConfig         `yaml:"chart" mapstructure:"chart"`
	UpdatedNote string              `yaml:"updated_note" mapstructure:"updated_note"`
}

// ChartConfig sizes the rendered chart image.
type ChartConfig struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// Default returns the settings used when no file or env override is present.
func Default() *Config {
	return &Config{
		DataPath:    dataset.DefaultPath,
		Listen:      "127.0.0.1:8050",
		LogLevel:    "info",
		Countries:   append([]string(nil), trajectory.DefaultCountries...),
		Range:       trajectory.DefaultRange,
		Chart:       ChartConfig{Width: 1100, Height: trajectory.ChartHeight},
		UpdatedNote: "Data and chart last updated: March 20, 23:00 GMT",
	}
}

// DefaultSelection is the selection the pickers start from.
func (c *Config) DefaultSelection() trajectory.Selection {
	return trajectory.NewSelection(c.Countries, c.Range.Low, c.Range.High)
}

// Validate checks bounds that the UI relies on.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataPath) == "" {
		errs = append(errs, errors.New("data_path must not be empty"))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen must not be empty"))
	}
	if len(c.Countries) > trajectory.MaxCountries {
		errs = append(errs, fmt.Errorf("at most %d countries, got %d", trajectory.MaxCountries, len(c.Countries)))
	}
	r := c.Range
	if r.Low < trajectory.MinDay || r.High > trajectory.MaxDay || r.Low > r.High {
		errs = append(errs, fmt.Errorf("range %v must satisfy %d <= low <= high <= %d", r, trajectory.MinDay, trajectory.MaxDay))
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		errs = append(errs, fmt.Errorf("chart size %dx%d must be positive", c.Chart.Width, c.Chart.Height))
	}
	return errors.Join(errs...)
}

// Load reads path (when it exists) over the defaults and applies env
// overrides. An empty path means defaults plus env only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// TRAJ_COUNTRIES="US,Spain" arrives as a single element
	if len(cfg.Countries) == 1 && strings.Contains(cfg.Countries[0], ",") {
		cfg.Countries = splitList(cfg.Countries[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_path", d.DataPath)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("countries", d.Countries)
	v.SetDefault("range.low", d.Range.Low)
	v.SetDefault("range.high", d.Range.High)
	v.SetDefault("chart.width", d.Chart.Width)
	v.SetDefault("chart.height", d.Chart.Height)
	v.SetDefault("updated_note", d.UpdatedNote)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return b, nil
}

// WriteDefault writes the default configuration to path. An existing file is
// left untouched unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("write config %s: %w", path, fs.ErrExist)
		}
	}
	b, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
