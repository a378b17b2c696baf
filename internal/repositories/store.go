package repositories

import (
	"context"
	"fmt"
)

// Repositories groups every control-plane repository bound to one
// connection or transaction.
type Repositories struct {
	Agencies       AgencyRepository
	Subscriptions  SubscriptionRepository
	Plans          PlanRepository
	PendingSignups PendingSignupRepository
	WebhookEvents  WebhookEventRepository
	Users          UserRepository
}

func NewRepositories(db Database) *Repositories {
	return &Repositories{
		Agencies:       NewAgencyRepo(db),
		Subscriptions:  NewSubscriptionRepo(db),
		Plans:          NewPlanRepo(db),
		PendingSignups: NewPendingSignupRepo(db),
		WebhookEvents:  NewWebhookEventRepo(db),
		Users:          NewUserRepo(db),
	}
}

// Store hands out repositories, either on the pool or inside a transaction.
type Store interface {
	Repos() *Repositories
	// WithTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type pgStore struct {
	db    TxDatabase
	repos *Repositories
}

func NewStore(db TxDatabase) Store {
	return &pgStore{db: db, repos: NewRepositories(db)}
}

func (s *pgStore) Repos() *Repositories {
	return s.repos
}

func (s *pgStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
