// Package cmd provides the contactbook command-line interface.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--port, --seed, ...) - highest priority
//	2. Environment variables (CONTACTBOOK_SERVER_PORT, ...)
//	3. Configuration file (--config, CONTACTBOOK_CONFIG_FILE, or .contactbook.yml)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	CONTACTBOOK_CONFIG_FILE: Path to custom configuration file
//	CONTACTBOOK_SERVER_PORT: Override server port
//	CONTACTBOOK_NOTIFICATIONS_AUTO_CLOSE: Toast lifetime, for example 5s
//	And the rest following the CONTACTBOOK_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/contactbook/internal/config"
	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/errors"
	"github.com/conneroisu/contactbook/internal/logging"
	"github.com/conneroisu/contactbook/internal/store"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contactbook",
	Short: "A small contact book served over HTTP",
	Long: `Contactbook keeps a list of named phone contacts. It serves a page with
an add-contact form and a contact list, validates names and numbers, rejects
duplicate names, and shows short-lived notifications.

Quick Start:
  contactbook serve                          Start the server on localhost:8080
  contactbook serve --seed contacts.yaml     Start with contacts from a file
  contactbook validate --name Anna --number "+1 555 0100"
  contactbook list --seed contacts.yaml -o json`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps the error returned by Execute to a process exit status:
// 1 when the input can be corrected and retried, 2 for any other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsRecoverable(err):
		return 1
	default:
		return 2
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .contactbook.yml, can also use CONTACTBOOK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", func(format string) error {
		return ValidateFormat(format, []string{"text", "json"})
	})
}

// initConfig wires the config file and CONTACTBOOK_ environment overrides
// into the global Viper instance.
func initConfig() {
	explicit := cfgFile
	if explicit == "" {
		explicit = os.Getenv(config.EnvPrefix + "_CONFIG_FILE")
	}

	if explicit != "" {
		viper.SetConfigFile(explicit)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(config.DefaultConfigName)
	}

	config.BindEnv(viper.GetViper())

	// A missing default file is fine; an explicit one that fails to load is reported.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if explicit != "" {
		fmt.Fprintln(os.Stderr, "Warning: failed to read config file:", err)
	}
}

// loadConfig binds the command's flags and loads the configuration.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	SetViperBindings(cmd, map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
	})
	SetViperBindings(cmd, bindings)
	return config.Load()
}

func newLogger(cfg *config.Config, out io.Writer) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: out,
	})
}

// loadSeed returns the contacts in path, or none when path is empty.
func loadSeed(ctx context.Context, path string, logger logging.Logger) ([]contact.Contact, error) {
	if path == "" {
		return nil, nil
	}

	op := logging.StartOperation(logger, "load_seed", "file", path)
	contacts, err := store.LoadSeed(path, contact.UUIDGenerator{})
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	op.End(ctx, "count", len(contacts))
	return contacts, nil
}
