package services

import (
	"context"
	"fmt"
	"time"

	"reviso/internal/config"
	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const planCacheTTL = 5 * time.Minute

// PlanCache is the slice of the cache used for the plan listing.
type PlanCache interface {
	GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, bool, error)
	SetActivePlans(ctx context.Context, plans []*models.SubscriptionPlan, ttl time.Duration) error
	InvalidatePlans(ctx context.Context) error
}

type PlanService interface {
	ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error)
	// SeedCatalog upserts every catalog plan by code.
	SeedCatalog(ctx context.Context, catalog *config.PlanCatalog) (int, error)
}

type planService struct {
	plans repositories.PlanRepository
	cache PlanCache
}

// NewPlanService builds the plan listing. cache may be nil.
func NewPlanService(plans repositories.PlanRepository, cache PlanCache) PlanService {
	return &planService{plans: plans, cache: cache}
}

func (s *planService) ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	if s.cache != nil {
		plans, ok, err := s.cache.GetActivePlans(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("plan cache read failed")
		}
		if ok {
			return plans, nil
		}
	}

	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetActivePlans(ctx, plans, planCacheTTL); err != nil {
			log.Warn().Err(err).Msg("plan cache write failed")
		}
	}
	return plans, nil
}

func (s *planService) SeedCatalog(ctx context.Context, catalog *config.PlanCatalog) (int, error) {
	for _, plan := range catalog.Plans {
		if plan.ID == uuid.Nil {
			plan.ID = uuid.New()
		}
		if err := s.plans.Upsert(ctx, &plan); err != nil {
			return 0, fmt.Errorf("upsert plan %s: %w", plan.Code, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidatePlans(ctx); err != nil {
			log.Warn().Err(err).Msg("plan cache invalidation failed")
		}
	}
	return len(catalog.Plans), nil
}
