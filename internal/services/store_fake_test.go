package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/google/uuid"
)

// memState is the control-plane data held by memStore.
type memState struct {
	agencies map[uuid.UUID]models.Agency
	subs     map[uuid.UUID]models.Subscription
	plans    map[uuid.UUID]models.SubscriptionPlan
	pending  map[string]models.PendingSignup
	events   map[string]models.WebhookEvent
	users    map[uuid.UUID]models.User
}

func newMemState() *memState {
	return &memState{
		agencies: map[uuid.UUID]models.Agency{},
		subs:     map[uuid.UUID]models.Subscription{},
		plans:    map[uuid.UUID]models.SubscriptionPlan{},
		pending:  map[string]models.PendingSignup{},
		events:   map[string]models.WebhookEvent{},
		users:    map[uuid.UUID]models.User{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.agencies {
		c.agencies[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// memStore is a repositories.Store whose transactions are serialized and
// work on a copy that replaces the state only on commit.
type memStore struct {
	txMu    sync.Mutex
	dataMu  sync.Mutex
	state   *memState
	commits int
	aborts  int
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) Repos() *repositories.Repositories {
	return m.reposFor(&memView{mu: &m.dataMu, state: func() *memState { return m.state }})
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.dataMu.Lock()
	working := m.state.clone()
	m.dataMu.Unlock()

	if err := fn(ctx, m.reposFor(&memView{mu: &sync.Mutex{}, state: func() *memState { return working }})); err != nil {
		m.aborts++
		return err
	}

	m.dataMu.Lock()
	m.state = working
	m.commits++
	m.dataMu.Unlock()
	return nil
}

func (m *memStore) reposFor(v *memView) *repositories.Repositories {
	return &repositories.Repositories{
		Agencies:       &memAgencies{v},
		Subscriptions:  &memSubscriptions{v},
		Plans:          &memPlans{v},
		PendingSignups: &memPending{v},
		WebhookEvents:  &memEvents{v},
		Users:          &memUsers{v},
	}
}

// snapshot returns the committed state for assertions.
func (m *memStore) snapshot() *memState {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.state.clone()
}

func (m *memStore) addPlan(p models.SubscriptionPlan) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.plans[p.ID] = p
}

func (m *memStore) addAgency(a models.Agency) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.agencies[a.ID] = a
}

func (m *memStore) addSubscription(s models.Subscription) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.subs[s.ID] = s
}

func (m *memStore) addUser(u models.User) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.users[u.ID] = u
}

func (m *memStore) addPending(p models.PendingSignup) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.pending[p.CheckoutSessionID] = p
}

type memView struct {
	mu    *sync.Mutex
	state func() *memState
}

func (v *memView) with(fn func(s *memState) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fn(v.state())
}

type memAgencies struct{ v *memView }

func (r *memAgencies) Create(_ context.Context, a *models.Agency) error {
	return r.v.with(func(s *memState) error {
		if _, ok := s.agencies[a.ID]; ok {
			return repositories.ErrDuplicate
		}
		s.agencies[a.ID] = *a
		return nil
	})
}

func (r *memAgencies) GetByID(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	var out *models.Agency
	err := r.v.with(func(s *memState) error {
		a, ok := s.agencies[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *memAgencies) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	return r.GetByID(ctx, id)
}

func (r *memAgencies) Activate(_ context.Context, id uuid.UUID) (bool, error) {
	activated := false
	err := r.v.with(func(s *memState) error {
		a, ok := s.agencies[id]
		if !ok || a.Active {
			return nil
		}
		a.Active = true
		s.agencies[id] = a
		activated = true
		return nil
	})
	return activated, err
}

func (r *memAgencies) SetDatabaseName(_ context.Context, id uuid.UUID, name string) error {
	return r.v.with(func(s *memState) error {
		a, ok := s.agencies[id]
		if !ok || a.DatabaseName != nil {
			return repositories.ErrDatabaseNameAssigned
		}
		for _, other := range s.agencies {
			if other.DatabaseName != nil && *other.DatabaseName == name {
				return repositories.ErrDuplicate
			}
		}
		a.DatabaseName = &name
		s.agencies[id] = a
		return nil
	})
}

func (r *memAgencies) ListUnprovisioned(_ context.Context, limit int) ([]*models.Agency, error) {
	var out []*models.Agency
	err := r.v.with(func(s *memState) error {
		for _, a := range s.agencies {
			if a.Active && a.DatabaseName == nil && len(out) < limit {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	return out, err
}

type memSubscriptions struct{ v *memView }

func (r *memSubscriptions) find(match func(models.Subscription) bool) (*models.Subscription, error) {
	var out *models.Subscription
	err := r.v.with(func(s *memState) error {
		for _, sub := range s.subs {
			if match(sub) {
				sub := sub
				out = &sub
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memSubscriptions) Create(_ context.Context, sub *models.Subscription) error {
	return r.v.with(func(s *memState) error {
		for _, existing := range s.subs {
			if existing.AgencyID == sub.AgencyID {
				return repositories.ErrDuplicate
			}
		}
		s.subs[sub.ID] = *sub
		return nil
	})
}

func (r *memSubscriptions) GetByAgencyID(_ context.Context, agencyID uuid.UUID) (*models.Subscription, error) {
	return r.find(func(s models.Subscription) bool { return s.AgencyID == agencyID })
}

func (r *memSubscriptions) GetByCheckoutSessionID(_ context.Context, sessionID string) (*models.Subscription, error) {
	return r.find(func(s models.Subscription) bool {
		return s.CheckoutSessionID != nil && *s.CheckoutSessionID == sessionID
	})
}

func (r *memSubscriptions) GetByProviderIDForUpdate(_ context.Context, providerID string) (*models.Subscription, error) {
	return r.find(func(s models.Subscription) bool {
		return s.ProviderSubscriptionID != nil && *s.ProviderSubscriptionID == providerID
	})
}

func (r *memSubscriptions) UpdateState(_ context.Context, sub *models.Subscription) error {
	return r.v.with(func(s *memState) error {
		existing, ok := s.subs[sub.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		existing.Status = sub.Status
		existing.CurrentPeriodStart = sub.CurrentPeriodStart
		existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
		existing.ProviderCustomerID = sub.ProviderCustomerID
		existing.UpdatedAt = sub.UpdatedAt
		s.subs[sub.ID] = existing
		return nil
	})
}

type memPlans struct{ v *memView }

func (r *memPlans) GetByID(_ context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	var out *models.SubscriptionPlan
	err := r.v.with(func(s *memState) error {
		p, ok := s.plans[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *memPlans) GetByCode(_ context.Context, code string) (*models.SubscriptionPlan, error) {
	var out *models.SubscriptionPlan
	err := r.v.with(func(s *memState) error {
		for _, p := range s.plans {
			if p.Code == code {
				p := p
				out = &p
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memPlans) ListActive(_ context.Context) ([]*models.SubscriptionPlan, error) {
	var out []*models.SubscriptionPlan
	err := r.v.with(func(s *memState) error {
		for _, p := range s.plans {
			if p.Active {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

func (r *memPlans) Upsert(_ context.Context, p *models.SubscriptionPlan) error {
	return r.v.with(func(s *memState) error {
		for id, existing := range s.plans {
			if existing.Code == p.Code {
				updated := *p
				updated.ID = id
				s.plans[id] = updated
				return nil
			}
		}
		s.plans[p.ID] = *p
		return nil
	})
}

type memPending struct{ v *memView }

func (r *memPending) Create(_ context.Context, p *models.PendingSignup) error {
	return r.v.with(func(s *memState) error {
		if _, ok := s.pending[p.CheckoutSessionID]; ok {
			return repositories.ErrDuplicate
		}
		s.pending[p.CheckoutSessionID] = *p
		return nil
	})
}

func (r *memPending) GetBySessionID(_ context.Context, sessionID string) (*models.PendingSignup, error) {
	var out *models.PendingSignup
	err := r.v.with(func(s *memState) error {
		p, ok := s.pending[sessionID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *memPending) GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*models.PendingSignup, error) {
	return r.GetBySessionID(ctx, sessionID)
}

func (r *memPending) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.with(func(s *memState) error {
		for key, p := range s.pending {
			if p.ID == id {
				delete(s.pending, key)
				return nil
			}
		}
		return repositories.ErrNotFound
	})
}

func (r *memPending) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.v.with(func(s *memState) error {
		for key, p := range s.pending {
			if p.ExpiresAt.Before(now) {
				delete(s.pending, key)
				n++
			}
		}
		return nil
	})
	return n, err
}

type memEvents struct{ v *memView }

func (r *memEvents) InsertIfAbsent(_ context.Context, eventID, eventType string, at time.Time) (bool, error) {
	inserted := false
	err := r.v.with(func(s *memState) error {
		if _, ok := s.events[eventID]; ok {
			return nil
		}
		s.events[eventID] = models.WebhookEvent{EventID: eventID, EventType: eventType, ProcessedAt: at}
		inserted = true
		return nil
	})
	return inserted, err
}

type memUsers struct{ v *memView }

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	return r.v.with(func(s *memState) error {
		for _, existing := range s.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return repositories.ErrDuplicate
			}
		}
		s.users[u.ID] = *u
		return nil
	})
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.v.with(func(s *memState) error {
		u, ok := s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.v.with(func(s *memState) error {
		for _, u := range s.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == repositories.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}
