package main

import (
	"errors"
	"fmt"

	"reviso/internal/config"
	"reviso/internal/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	migrationSet string
	migrateURL   string
	downSteps    int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
	Long: `Apply or roll back the embedded migrations. The controlplane set targets
DATABASE_URL; the tenant set needs --database-url pointing at an agency database.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, url, err := migrationTarget()
		if err != nil {
			return err
		}
		if err := migrations.Up(set, url); err != nil {
			return err
		}
		log.Info().Str("set", string(set)).Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		set, url, err := migrationTarget()
		if err != nil {
			return err
		}
		m, err := migrations.New(set, url)
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Steps(-downSteps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("roll back %s migrations: %w", set, err)
		}
		log.Info().Str("set", string(set)).Int("steps", downSteps).Msg("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, url, err := migrationTarget()
		if err != nil {
			return err
		}
		m, err := migrations.New(set, url)
		if err != nil {
			return err
		}
		defer m.Close()

		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: no migrations applied\n", set)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: version %d (dirty=%t)\n", set, version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationSet, "set", string(migrations.ControlPlane), "migration set (controlplane or tenant)")
	migrateCmd.PersistentFlags().StringVar(&migrateURL, "database-url", "", "target database, defaults to DATABASE_URL for the controlplane set")
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func migrationTarget() (migrations.Set, string, error) {
	set := migrations.Set(migrationSet)
	switch set {
	case migrations.ControlPlane:
		if migrateURL != "" {
			return set, migrateURL, nil
		}
		cfg, err := config.Load()
		if err != nil {
			return "", "", err
		}
		return set, cfg.DatabaseURL, nil
	case migrations.Tenant:
		if migrateURL == "" {
			return "", "", fmt.Errorf("--database-url is required for the tenant set")
		}
		return set, migrateURL, nil
	default:
		return "", "", fmt.Errorf("unknown migration set %q", migrationSet)
	}
}
