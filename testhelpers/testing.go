package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"reviso/internal/migrations"
	"reviso/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds a migrated control-plane database for integration tests.
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the control-plane
// migrations. The test is skipped when the variable is unset. Tables are
// truncated when the test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := migrations.Up(migrations.ControlPlane, url); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool}
	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(),
			`TRUNCATE webhook_events, pending_signups, subscriptions, users, agencies CASCADE`)
		if err != nil {
			t.Errorf("Failed to truncate test tables: %v", err)
		}
		pool.Close()
	})
	return db
}

// SetupTestAgency inserts an inactive agency and returns it.
func SetupTestAgency(t *testing.T, db *TestDB) *models.Agency {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	agency := &models.Agency{
		ID:           uuid.New(),
		Name:         "Integration Agency",
		ContactEmail: "owner+" + uuid.NewString()[:8] + "@integration.test",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO agencies (id, name, contact_email, active, created_at, updated_at) VALUES ($1, $2, $3, false, $4, $5)`,
		agency.ID, agency.Name, agency.ContactEmail, agency.CreatedAt, agency.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test agency: %v", err)
	}
	return agency
}
