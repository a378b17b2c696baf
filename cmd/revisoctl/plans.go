package main

import (
	"fmt"

	"reviso/internal/caching"
	"reviso/internal/config"
	"reviso/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var catalogFile string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Subscription plan catalog",
}

var plansSeedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Upsert the plan catalog into the database",
	Example: `  revisoctl plans seed --file plans.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pool, store, err := controlPlane(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		file := catalogFile
		if file == "" {
			file = cfg.PlanCatalogFile
		}
		catalog, err := config.LoadPlanCatalog(file)
		if err != nil {
			return err
		}

		redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()

		n, err := services.NewPlanService(store.Repos().Plans, caching.NewRedisCacheService(redisClient)).SeedCatalog(ctx, catalog)
		if err != nil {
			return err
		}
		log.Info().Str("file", file).Int("plans", n).Msg("plan catalog seeded")
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d plans\n", n)
		return nil
	},
}

func init() {
	plansSeedCmd.Flags().StringVarP(&catalogFile, "file", "f", "", "catalog file, defaults to PLAN_CATALOG_FILE")
	plansCmd.AddCommand(plansSeedCmd)
}
