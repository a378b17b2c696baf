package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviso/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	activePlansKey = "reviso:plans:active"
	statusKeyFmt   = "reviso:subscription:status:%s"
)

// CacheService caches read-mostly billing data. Misses return ok=false
// without an error.
type CacheService interface {
	// Active plan listing. Provider price references are not cached.
	GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, bool, error)
	SetActivePlans(ctx context.Context, plans []*models.SubscriptionPlan, ttl time.Duration) error
	InvalidatePlans(ctx context.Context) error

	// Subscription status per agency, used by access checks.
	GetSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) (models.SubscriptionStatus, bool, error)
	SetSubscriptionStatus(ctx context.Context, agencyID uuid.UUID, status models.SubscriptionStatus, ttl time.Duration) error
	InvalidateSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client redis.UniversalClient
}

// NewRedisClient builds a client, accepting redis:// style addresses.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Str("addr", parsedAddr).Msg("redis ping failed on initialization")
	}
	return client
}

func NewRedisCacheService(client redis.UniversalClient) CacheService {
	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, bool, error) {
	data, err := r.client.Get(ctx, activePlansKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var plans []*models.SubscriptionPlan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, false, err
	}
	return plans, true, nil
}

func (r *redisCacheService) SetActivePlans(ctx context.Context, plans []*models.SubscriptionPlan, ttl time.Duration) error {
	data, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, activePlansKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidatePlans(ctx context.Context) error {
	return r.client.Del(ctx, activePlansKey).Err()
}

func (r *redisCacheService) GetSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) (models.SubscriptionStatus, bool, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(statusKeyFmt, agencyID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	status, err := models.ParseSubscriptionStatus(raw)
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (r *redisCacheService) SetSubscriptionStatus(ctx context.Context, agencyID uuid.UUID, status models.SubscriptionStatus, ttl time.Duration) error {
	return r.client.Set(ctx, fmt.Sprintf(statusKeyFmt, agencyID), string(status), ttl).Err()
}

func (r *redisCacheService) InvalidateSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) error {
	return r.client.Del(ctx, fmt.Sprintf(statusKeyFmt, agencyID)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
