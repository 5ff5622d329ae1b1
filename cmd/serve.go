package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/contactbook/internal/config"
	"github.com/conneroisu/contactbook/internal/logging"
	"github.com/conneroisu/contactbook/internal/server"
	"github.com/conneroisu/contactbook/internal/store"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the contact book server",
	Long: `Start the HTTP server with the contact form, the contact list and live
toast notifications. Contacts live in memory; --seed preloads them from a
YAML file. Changes to notifications.auto_close in the config file apply
without a restart.

Examples:
  contactbook serve                          # localhost:8080
  contactbook serve -p 3000 --host 0.0.0.0   # listen on all interfaces
  contactbook serve --seed contacts.yaml     # preload contacts`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on (0 picks a free port)")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("seed", "", "YAML file with initial contacts")

	AddFlagValidation(serveCmd.Flags(), "port", ValidatePort)
	AddFlagValidation(serveCmd.Flags(), "seed", ValidateFileExists)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"port": "server.port",
		"host": "server.host",
		"seed": "contacts.seed_file",
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	seed, err := loadSeed(cmd.Context(), cfg.Contacts.SeedFile, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg, store.NewMemory(seed...), logger)

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(onConfigChange(srv, logger))
		viper.WatchConfig()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

type autoCloseSetter interface {
	SetAutoClose(time.Duration)
}

// onConfigChange reloads the configuration after the file changes and
// applies the settings that can change at runtime. Invalid edits are logged
// and ignored.
func onConfigChange(target autoCloseSetter, logger logging.Logger) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		ctx := context.Background()
		cfg, err := config.Load()
		if err != nil {
			logger.Warn(ctx, err, "Ignoring invalid config change", "file", e.Name)
			return
		}

		logger.Info(ctx, "Config file changed", "file", e.Name)
		target.SetAutoClose(cfg.Notifications.AutoClose)
	}
}
