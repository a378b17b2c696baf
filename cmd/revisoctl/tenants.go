package main

import (
	"fmt"

	"reviso/internal/config"
	"reviso/internal/jobs/background"
	"reviso/internal/repositories"
	"reviso/internal/services"
	"reviso/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Tenant database provisioning",
}

var tenantsProvisionCmd = &cobra.Command{
	Use:   "provision <agency-id>",
	Short: "Provision the database of one agency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agencyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid agency id %q: %w", args[0], err)
		}

		ctx := cmd.Context()
		cfg, pool, store, err := controlPlane(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		provisioning, closeAdmin, err := provisioningService(cmd, cfg, pool, store)
		if err != nil {
			return err
		}
		defer closeAdmin()

		name, err := provisioning.ProvisionTenant(ctx, agencyID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "agency %s provisioned as %s\n", agencyID, name)
		return nil
	},
}

var tenantsReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Provision active agencies that have no database yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pool, store, err := controlPlane(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		provisioning, closeAdmin, err := provisioningService(cmd, cfg, pool, store)
		if err != nil {
			return err
		}
		defer closeAdmin()

		n, err := background.NewTasks(store.Repos().PendingSignups, provisioning).ReconcileTenants(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "provisioned %d agencies\n", n)
		return nil
	},
}

func init() {
	tenantsCmd.AddCommand(tenantsProvisionCmd, tenantsReconcileCmd)
}

func provisioningService(cmd *cobra.Command, cfg *config.Config, pool *pgxpool.Pool, store repositories.Store) (services.TenantProvisioningService, func(), error) {
	admin, adminURL, closeAdmin, err := database.AdminPool(cmd.Context(), pool, cfg.DatabaseURL, cfg.DatabaseAdminURL)
	if err != nil {
		return nil, nil, err
	}

	var objects services.ObjectStorage
	if cfg.Minio.Enabled() {
		objects, err = services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			closeAdmin()
			return nil, nil, err
		}
	}
	return services.NewTenantProvisioningService(store, services.NewPostgresAllocator(admin, adminURL), objects), closeAdmin, nil
}
