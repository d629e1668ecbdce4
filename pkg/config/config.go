// Package config resolves settings and provider options from flags,
// environment variables and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
)

// EnvPrefix prefixes every environment variable, e.g. AUTHCONFIG_IPAPASSWORD.
const EnvPrefix = "AUTHCONFIG"

// Settings holds the tool's own settings. The safe output directory is
// not one of them; it is fixed at authconfig.DefaultSafeDir.
type Settings struct {
	Log LogSettings `mapstructure:"log"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

var validate = validator.New()

// Config resolves values with precedence flags > environment > file > defaults.
type Config struct {
	v *viper.Viper
}

// Load reads configPath when given and binds flags. A missing explicit
// config file is an error.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setupViper(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// setupViper configures defaults and environment variable support.
// Environment variables use the AUTHCONFIG_ prefix and underscores,
// e.g. AUTHCONFIG_LOG_LEVEL=debug.
func setupViper(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Settings decodes and validates the tool settings. The debug option
// raises the log level to debug.
func (c *Config) Settings() (*Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if c.v.GetBool(authconfig.OptDebug) {
		s.Log.Level = "debug"
	}
	s.Log.Level = strings.ToLower(s.Log.Level)
	s.Log.Format = strings.ToLower(s.Log.Format)

	if err := validate.Struct(&s); err != nil {
		return nil, authconfig.ErrValidation("configuration validation failed").WithCause(err)
	}
	return &s, nil
}

// Options builds the options bag for the given descriptors. Unset string
// options are left out; booleans always get a value.
func (c *Config) Options(descriptors ...[]authconfig.OptionDescriptor) authconfig.Options {
	opts := authconfig.Options{}
	for _, group := range descriptors {
		for _, d := range group {
			if d.IsBool() {
				opts[d.Name] = c.v.GetBool(d.Name)
				continue
			}
			if s := c.v.GetString(d.Name); s != "" {
				opts[d.Name] = s
			} else if d.Default != nil {
				opts[d.Name] = d.Default
			}
		}
	}
	return opts
}
