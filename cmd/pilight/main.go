package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/begillespie/pilight/internal/command"
	"github.com/begillespie/pilight/internal/config"
	"github.com/begillespie/pilight/internal/led"
	"github.com/begillespie/pilight/internal/logging"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "pilight",
		Short:         "Drive an RGB LED from text commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath, cmd.Flags())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath, cmd.Flags())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "exec <command...>",
		Short: "Run one command against the LED and print the result",
		Long: "Runs a single command, e.g. `pilight exec rgb 255 0 0` or `pilight exec teal`, " +
			"and prints the text the server would have returned. The LED keeps the color after exit.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			ch, driver := openBackend(cfg)
			log.Debug().Str("driver", driver).Msg("backend ready")
			ctrl := led.New(ch)
			out := command.New(ctrl, command.WithStatus(ctrl)).Execute(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	})
	return root
}

// loadConfig layers the file, PILIGHT_* variables and changed flags, in
// that order, then sets up logging.
func loadConfig(path string, fs *pflag.FlagSet) (*config.Config, error) {
	cfg, loadErr := config.Load(path)
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if loadErr != nil {
		log.Warn().Err(loadErr).Str("path", path).Msg("config load failed; using defaults and flags")
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}
	return cfg, nil
}
