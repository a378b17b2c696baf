package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reviso/internal/config"
	"reviso/internal/logging"
	"reviso/internal/repositories"
	"reviso/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "revisoctl",
	Short:         "Reviso operations tool",
	Long:          `Run migrations, seed plans and manage tenant provisioning outside the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{Format: "console", Level: logLevel, Component: "revisoctl"})
	},
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(migrateCmd, plansCmd, tenantsCmd, signupsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// controlPlane loads configuration and opens the control-plane pool. The
// caller must close the pool.
func controlPlane(ctx context.Context) (*config.Config, *pgxpool.Pool, repositories.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, 4)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, pool, repositories.NewStore(pool), nil
}
