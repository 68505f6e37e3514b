// Package config defines the application configuration and the functions
// for loading it from YAML, an optional .env file and SAVINGS_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for savings-protocol.
type Configuration struct {
	Logging  LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Limits   validation.Limits `yaml:"limits,omitempty" mapstructure:"limits"`
	Protocol ProtocolDefaults  `yaml:"protocol,omitempty" mapstructure:"protocol"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// ProtocolDefaults are the progression parameters used when a request omits
// them.
type ProtocolDefaults struct {
	StartValue float64 `yaml:"startValue" mapstructure:"startValue"`
	Increment  float64 `yaml:"increment" mapstructure:"increment"`
	Cap        float64 `yaml:"cap" mapstructure:"cap"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are not overridden.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults, still subject to
// environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can resolve it on Unmarshal.
	limits := validation.DefaultLimits()
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")
	setBoundsDefault(v, "limits.targetAmount", limits.TargetAmount)
	setBoundsDefault(v, "limits.periods", limits.Periods)
	setBoundsDefault(v, "limits.startValue", limits.StartValue)
	setBoundsDefault(v, "limits.increment", limits.Increment)
	setBoundsDefault(v, "limits.cap", limits.Cap)
	v.SetDefault("protocol.startValue", constants.DefaultStartValue)
	v.SetDefault("protocol.increment", constants.DefaultIncrement)
	v.SetDefault("protocol.cap", constants.DefaultCap)
	return v
}

func setBoundsDefault(v *viper.Viper, key string, b validation.Bounds) {
	v.SetDefault(key+".min", b.Min)
	v.SetDefault(key+".max", b.Max)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Warnings do not stop the application.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	bounds := []struct {
		name string
		b    validation.Bounds
	}{
		{"targetAmount", c.Limits.TargetAmount},
		{"periods", c.Limits.Periods},
		{"startValue", c.Limits.StartValue},
		{"increment", c.Limits.Increment},
		{"cap", c.Limits.Cap},
	}
	for _, entry := range bounds {
		if entry.b.Min > entry.b.Max {
			warnings = append(warnings, fmt.Sprintf("Limit '%s' has min %.2f above max %.2f - every value will be rejected",
				entry.name, entry.b.Min, entry.b.Max))
		}
	}

	if err := c.Limits.ValidateProtocol(c.Protocol.StartValue, c.Protocol.Increment, c.Protocol.Cap); err != nil {
		warnings = append(warnings, fmt.Sprintf("Protocol defaults are rejected by the configured limits: %v", err))
	}

	return warnings
}

// DefaultParameters returns the configured protocol defaults.
func (c *Configuration) DefaultParameters() (start, increment, capValue float64) {
	return c.Protocol.StartValue, c.Protocol.Increment, c.Protocol.Cap
}
