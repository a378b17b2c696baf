package repositories

import (
	"context"
	"time"

	"reviso/internal/models"

	"github.com/google/uuid"
)

type PendingSignupRepository interface {
	Create(ctx context.Context, signup *models.PendingSignup) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.PendingSignup, error)
	GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*models.PendingSignup, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type pendingSignupRepo struct {
	db Database
}

func NewPendingSignupRepo(db Database) PendingSignupRepository {
	return &pendingSignupRepo{db: db}
}

const pendingSignupColumns = `id, checkout_session_id, plan_id, agency_name, admin_email, password_hash, created_at, expires_at`

func (r *pendingSignupRepo) Create(ctx context.Context, p *models.PendingSignup) error {
	query := `
		INSERT INTO pending_signups (id, checkout_session_id, plan_id, agency_name, admin_email, password_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.CheckoutSessionID, p.PlanID, p.AgencyName, p.AdminEmail, p.PasswordHash, p.CreatedAt, p.ExpiresAt)
	return translate(err)
}

func (r *pendingSignupRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.PendingSignup, error) {
	query := `SELECT ` + pendingSignupColumns + ` FROM pending_signups WHERE checkout_session_id = $1`
	return scanPendingSignup(r.db.QueryRow(ctx, query, sessionID))
}

func (r *pendingSignupRepo) GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*models.PendingSignup, error) {
	query := `SELECT ` + pendingSignupColumns + ` FROM pending_signups WHERE checkout_session_id = $1 FOR UPDATE`
	return scanPendingSignup(r.db.QueryRow(ctx, query, sessionID))
}

func (r *pendingSignupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM pending_signups WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *pendingSignupRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM pending_signups WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPendingSignup(row rowScanner) (*models.PendingSignup, error) {
	p := &models.PendingSignup{}
	err := row.Scan(&p.ID, &p.CheckoutSessionID, &p.PlanID, &p.AgencyName, &p.AdminEmail, &p.PasswordHash, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}
