// Package config loads contact book settings through Viper from a YAML file,
// CONTACTBOOK_ environment variables and command-line flags.
//
// Every section has defaults, so an empty configuration is valid. Load
// validates the result before returning it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/contactbook/internal/errors"
	"github.com/conneroisu/contactbook/internal/notify"
)

// EnvPrefix is the prefix of environment variable overrides, for example
// CONTACTBOOK_SERVER_PORT.
const EnvPrefix = "CONTACTBOOK"

// DefaultConfigName is the config file looked up in the working directory.
const DefaultConfigName = ".contactbook"

var envKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Contacts      ContactsConfig      `mapstructure:"contacts" yaml:"contacts"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	Environment    string   `mapstructure:"environment" yaml:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type NotificationsConfig struct {
	// AutoClose is how long a toast stays visible.
	AutoClose time.Duration `mapstructure:"auto_close" yaml:"auto_close"`
}

type ContactsConfig struct {
	// SeedFile is an optional YAML file loaded at startup.
	SeedFile string `mapstructure:"seed_file" yaml:"seed_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Address returns host:port for the listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("notifications.auto_close", notify.DefaultAutoClose)
	v.SetDefault("contacts.seed_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// BindEnv enables CONTACTBOOK_ environment overrides on v, with dots in keys
// replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "failed to decode configuration", err)
	}

	// Origins set through an env var arrive as one space-separated string.
	if v.IsSet("server.allowed_origins") {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if err := validateConfig(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid configuration", err)
	}

	return &config, nil
}
