// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/datetime"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override configuration keys,
// e.g. MW_LOGGING_LEVEL for logging.level.
const EnvPrefix = "MW"

// Configuration holds all configuration for mortality-watch.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// DefaultsConfig holds values used when an input leaves them unset.
type DefaultsConfig struct {
	ChartType        string `yaml:"chartType,omitempty"`
	BaselineMethod   string `yaml:"baselineMethod,omitempty"`
	DecimalPrecision int    `yaml:"decimalPrecision,omitempty"`
	RankingWorkers   int    `yaml:"rankingWorkers,omitempty"`
}

var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.outputfile",
	"output.format",
	"defaults.charttype",
	"defaults.baselinemethod",
	"defaults.decimalprecision",
	"defaults.rankingworkers",
}

// LoadEnvFile loads environment variables from a dotenv file. A missing file
// is not an error. Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. MW_* environment variables override file values.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("unable to bind env for %s: %w", key, err)
		}
	}

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("defaults.charttype", "yearly")
	v.SetDefault("defaults.baselinemethod", "mean")
	v.SetDefault("defaults.decimalprecision", constants.DisplayDecimals)
	v.SetDefault("defaults.rankingworkers", constants.DefaultRankingWorkers)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown logging level %q, using info", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown logging format %q, using json", c.Logging.Format))
	}

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if c.Defaults.ChartType != "" {
		if _, err := datetime.GranularityOf(c.Defaults.ChartType); err != nil {
			warnings = append(warnings, fmt.Sprintf("defaults.chartType: %v", err))
		}
	}

	if c.Defaults.BaselineMethod != "" {
		if _, ok := datetime.BaselineMethods[c.Defaults.BaselineMethod]; !ok {
			warnings = append(warnings, fmt.Sprintf("defaults.baselineMethod: unknown baseline method %q", c.Defaults.BaselineMethod))
		}
	}

	if c.Defaults.DecimalPrecision < 0 || c.Defaults.DecimalPrecision > constants.DisplayDecimals {
		warnings = append(warnings, fmt.Sprintf("defaults.decimalPrecision %d outside 0-%d", c.Defaults.DecimalPrecision, constants.DisplayDecimals))
	}

	if c.Defaults.RankingWorkers < 0 {
		warnings = append(warnings, fmt.Sprintf("defaults.rankingWorkers %d is negative, using %d", c.Defaults.RankingWorkers, constants.DefaultRankingWorkers))
	}

	return warnings
}
