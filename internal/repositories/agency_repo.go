package repositories

import (
	"context"
	"errors"

	"reviso/internal/models"

	"github.com/google/uuid"
)

// ErrDatabaseNameAssigned is returned when an agency already owns a tenant store.
var ErrDatabaseNameAssigned = errors.New("agency database name already assigned")

type AgencyRepository interface {
	Create(ctx context.Context, agency *models.Agency) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	// GetByIDForUpdate locks the agency row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	// Activate flips the activation flag and reports whether this call did it.
	Activate(ctx context.Context, id uuid.UUID) (bool, error)
	SetDatabaseName(ctx context.Context, id uuid.UUID, name string) error
	ListUnprovisioned(ctx context.Context, limit int) ([]*models.Agency, error)
}

type agencyRepo struct {
	db Database
}

func NewAgencyRepo(db Database) AgencyRepository {
	return &agencyRepo{db: db}
}

const agencyColumns = `id, name, contact_email, active, database_name, created_at, updated_at`

func (r *agencyRepo) Create(ctx context.Context, agency *models.Agency) error {
	query := `
		INSERT INTO agencies (id, name, contact_email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, agency.ID, agency.Name, agency.ContactEmail, agency.Active, agency.CreatedAt, agency.UpdatedAt)
	return translate(err)
}

func (r *agencyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE id = $1`
	return scanAgency(r.db.QueryRow(ctx, query, id))
}

func (r *agencyRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE id = $1 FOR UPDATE`
	return scanAgency(r.db.QueryRow(ctx, query, id))
}

func (r *agencyRepo) Activate(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE agencies
		SET active = TRUE, updated_at = NOW()
		WHERE id = $1 AND active = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *agencyRepo) SetDatabaseName(ctx context.Context, id uuid.UUID, name string) error {
	query := `
		UPDATE agencies
		SET database_name = $2, updated_at = NOW()
		WHERE id = $1 AND database_name IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, name)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDatabaseNameAssigned
	}
	return nil
}

func (r *agencyRepo) ListUnprovisioned(ctx context.Context, limit int) ([]*models.Agency, error) {
	query := `
		SELECT ` + agencyColumns + `
		FROM agencies
		WHERE active = TRUE AND database_name IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agencies []*models.Agency
	for rows.Next() {
		agency, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		agencies = append(agencies, agency)
	}
	return agencies, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgency(row rowScanner) (*models.Agency, error) {
	agency := &models.Agency{}
	err := row.Scan(&agency.ID, &agency.Name, &agency.ContactEmail, &agency.Active, &agency.DatabaseName, &agency.CreatedAt, &agency.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return agency, nil
}
