package config

import (
	"fmt"

	"reviso/internal/models"

	"github.com/BurntSushi/toml"
)

// PlanCatalog is the TOML seed file for subscription plans.
type PlanCatalog struct {
	Plans []models.SubscriptionPlan `toml:"plan"`
}

// LoadPlanCatalog loads plans from a TOML file
func LoadPlanCatalog(filename string) (*PlanCatalog, error) {
	catalog := &PlanCatalog{}
	if _, err := toml.DecodeFile(filename, catalog); err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}
	seen := make(map[string]bool, len(catalog.Plans))
	for i, p := range catalog.Plans {
		if p.Code == "" || p.Name == "" {
			return nil, fmt.Errorf("plan %d: code and name are required", i+1)
		}
		if seen[p.Code] {
			return nil, fmt.Errorf("plan %q declared twice", p.Code)
		}
		seen[p.Code] = true
	}
	return catalog, nil
}
