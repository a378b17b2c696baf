package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const statusCacheTTL = time.Minute

// SubscriptionStatusCache is the slice of the cache used by access checks.
type SubscriptionStatusCache interface {
	GetSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) (models.SubscriptionStatus, bool, error)
	SetSubscriptionStatus(ctx context.Context, agencyID uuid.UUID, status models.SubscriptionStatus, ttl time.Duration) error
}

// AccessService resolves the subscription status that gates an agency's requests.
type AccessService interface {
	Status(ctx context.Context, agencyID uuid.UUID) (models.SubscriptionStatus, error)
}

type accessService struct {
	subs  repositories.SubscriptionRepository
	cache SubscriptionStatusCache
}

// NewAccessService reads through cache, which may be nil.
func NewAccessService(subs repositories.SubscriptionRepository, cache SubscriptionStatusCache) AccessService {
	return &accessService{subs: subs, cache: cache}
}

func (s *accessService) Status(ctx context.Context, agencyID uuid.UUID) (models.SubscriptionStatus, error) {
	if s.cache != nil {
		status, ok, err := s.cache.GetSubscriptionStatus(ctx, agencyID)
		if err != nil {
			log.Warn().Err(err).Msg("subscription status cache read failed")
		}
		if ok {
			return status, nil
		}
	}

	sub, err := s.subs.GetByAgencyID(ctx, agencyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrSubscriptionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load subscription: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetSubscriptionStatus(ctx, agencyID, sub.Status, statusCacheTTL); err != nil {
			log.Warn().Err(err).Msg("subscription status cache write failed")
		}
	}
	return sub.Status, nil
}
