package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"exercises-server/config"
	"exercises-server/loghandler"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "exercises",
		Short:        "Memory game server and currency converter",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				slog.Debug("no .env file found; using environment variables", "tag", "config")
			}

			cfg = config.LoadFrom(configPath)
			level := cfg.SlogLevel()
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, level)))

			return cfg.Validate()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "path to a JSON config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(serveCmd(), playCmd(), currenciesCmd(), convertCmd(), diffCmd())
	return root
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
