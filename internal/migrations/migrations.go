// Package migrations embeds the control-plane and tenant schemas and runs
// them with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed controlplane/*.sql tenant/*.sql
var files embed.FS

// Set selects which schema to migrate.
type Set string

const (
	ControlPlane Set = "controlplane"
	Tenant       Set = "tenant"
)

// Source returns the embedded migration source for the set.
func Source(set Set) (source.Driver, error) {
	switch set {
	case ControlPlane, Tenant:
	default:
		return nil, fmt.Errorf("unknown migration set %q", set)
	}
	return iofs.New(files, string(set))
}

// New builds a migrator for the set against databaseURL. The caller must Close it.
func New(set Set, databaseURL string) (*migrate.Migrate, error) {
	src, err := Source(set)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, DriverURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("init %s migrations: %w", set, err)
	}
	return m, nil
}

// Up applies every pending migration of the set. An up-to-date database is
// not an error.
func Up(set Set, databaseURL string) error {
	m, err := New(set, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", set, err)
	}
	return nil
}

// DriverURL rewrites a postgres URL to the scheme registered by the pgx/v5 driver.
func DriverURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}
