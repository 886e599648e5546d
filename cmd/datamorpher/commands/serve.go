package commands

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/datamorpher/internal/application"
	"github.com/JonMunkholm/datamorpher/internal/config"
	"github.com/JonMunkholm/datamorpher/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inference HTTP API",
		Long: `Start the HTTP server. Settings come from the environment, optionally
loaded from a .env file first. Jobs are stored in Postgres when DATABASE_URL
is set and in memory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Overload(envFile); err != nil {
				slog.Info("no .env file found, using environment variables", "file", envFile)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration")
	return cmd
}
