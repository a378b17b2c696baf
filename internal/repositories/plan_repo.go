package repositories

import (
	"context"

	"reviso/internal/models"

	"github.com/google/uuid"
)

type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	GetByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error)
	// Upsert inserts the plan or updates the row sharing its code.
	Upsert(ctx context.Context, plan *models.SubscriptionPlan) error
}

type planRepo struct {
	db Database
}

func NewPlanRepo(db Database) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, code, name, price_ref, product_ref, max_users, max_requests_per_month, active, created_at`

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

func (r *planRepo) GetByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE code = $1`
	return scanPlan(r.db.QueryRow(ctx, query, code))
}

func (r *planRepo) ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE active = TRUE ORDER BY max_users, code`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.SubscriptionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *planRepo) Upsert(ctx context.Context, p *models.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (id, code, name, price_ref, product_ref, max_users, max_requests_per_month, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
			price_ref = EXCLUDED.price_ref,
			product_ref = EXCLUDED.product_ref,
			max_users = EXCLUDED.max_users,
			max_requests_per_month = EXCLUDED.max_requests_per_month,
			active = EXCLUDED.active
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Code, p.Name, p.PriceRef, p.ProductRef, p.MaxUsers, p.MaxRequestsPerMonth, p.Active)
	return translate(err)
}

func scanPlan(row rowScanner) (*models.SubscriptionPlan, error) {
	p := &models.SubscriptionPlan{}
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.PriceRef, &p.ProductRef, &p.MaxUsers, &p.MaxRequestsPerMonth, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}
