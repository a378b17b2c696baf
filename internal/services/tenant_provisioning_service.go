package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"reviso/internal/metrics"
	"reviso/internal/migrations"
	"reviso/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"
)

const (
	storeNamePrefixLen = 10
	storeNameIDLen     = 8
	duplicateDatabase  = "42P04"
)

// DeriveStoreName builds the tenant store name from the agency display name
// and id: tenant_<normalized name, at most 10 chars>_<first 8 chars of id>.
func DeriveStoreName(agencyName string, agencyID uuid.UUID) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(agencyName) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == storeNamePrefixLen {
				break
			}
		}
	}
	return fmt.Sprintf("tenant_%s_%s", b.String(), agencyID.String()[:storeNameIDLen])
}

// TenantStoreAllocator creates an isolated tenant store and brings its
// schema up to date. Allocating an existing store only migrates it.
type TenantStoreAllocator interface {
	Allocate(ctx context.Context, name string) error
}

type TenantProvisioningService interface {
	// ProvisionTenant assigns and builds the agency's store. A second call
	// for the same agency fails with ErrAlreadyProvisioned.
	ProvisionTenant(ctx context.Context, agencyID uuid.UUID) (string, error)
	// ReconcileUnprovisioned provisions active agencies that have no store yet.
	ReconcileUnprovisioned(ctx context.Context, limit int) (int, error)
}

type tenantProvisioningService struct {
	store     repositories.Store
	allocator TenantStoreAllocator
	objects   ObjectStorage
	inflight  singleflight.Group
}

// NewTenantProvisioningService wires provisioning. objects may be nil when
// object storage is disabled.
func NewTenantProvisioningService(store repositories.Store, allocator TenantStoreAllocator, objects ObjectStorage) TenantProvisioningService {
	return &tenantProvisioningService{store: store, allocator: allocator, objects: objects}
}

func (s *tenantProvisioningService) ProvisionTenant(ctx context.Context, agencyID uuid.UUID) (string, error) {
	led := false
	v, err, shared := s.inflight.Do(agencyID.String(), func() (any, error) {
		led = true
		return s.provision(ctx, agencyID)
	})
	if err != nil {
		metrics.ProvisioningTotal.WithLabelValues(provisioningOutcome(err)).Inc()
		return "", err
	}
	if shared && !led {
		metrics.ProvisioningTotal.WithLabelValues("already_provisioned").Inc()
		return "", ErrAlreadyProvisioned
	}
	metrics.ProvisioningTotal.WithLabelValues("success").Inc()
	return v.(string), nil
}

func (s *tenantProvisioningService) provision(ctx context.Context, agencyID uuid.UUID) (string, error) {
	var name string
	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		agency, err := repos.Agencies.GetByIDForUpdate(ctx, agencyID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAgencyNotFound
		}
		if err != nil {
			return fmt.Errorf("lock agency: %w", err)
		}
		if agency.IsProvisioned() {
			return ErrAlreadyProvisioned
		}

		name = DeriveStoreName(agency.Name, agency.ID)
		if err := s.allocator.Allocate(ctx, name); err != nil {
			return fmt.Errorf("allocate tenant store %s: %w", name, err)
		}
		if s.objects != nil {
			if err := s.objects.EnsureBucketExists(ctx, TenantBucketName(name)); err != nil {
				return fmt.Errorf("ensure tenant bucket: %w", err)
			}
		}

		if err := repos.Agencies.SetDatabaseName(ctx, agencyID, name); err != nil {
			if errors.Is(err, repositories.ErrDatabaseNameAssigned) || errors.Is(err, repositories.ErrDuplicate) {
				return ErrAlreadyProvisioned.Wrap(err)
			}
			return fmt.Errorf("record tenant store name: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("agency_id", agencyID.String()).
		Str("store", name).
		Msg("tenant provisioned")
	return name, nil
}

func (s *tenantProvisioningService) ReconcileUnprovisioned(ctx context.Context, limit int) (int, error) {
	agencies, err := s.store.Repos().Agencies.ListUnprovisioned(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unprovisioned agencies: %w", err)
	}

	provisioned := 0
	var errs []error
	for _, agency := range agencies {
		if _, err := s.ProvisionTenant(ctx, agency.ID); err != nil {
			if errors.Is(err, ErrAlreadyProvisioned) {
				continue
			}
			log.Error().Err(err).Str("agency_id", agency.ID.String()).Msg("tenant provisioning retry failed")
			errs = append(errs, err)
			continue
		}
		provisioned++
	}
	return provisioned, errors.Join(errs...)
}

func provisioningOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyProvisioned):
		return "already_provisioned"
	case errors.Is(err, ErrAgencyNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// MigrateFunc applies a migration set to the database at url.
type MigrateFunc func(set migrations.Set, databaseURL string) error

type postgresAllocator struct {
	admin    repositories.Database
	adminURL string
	migrate  MigrateFunc
}

// NewPostgresAllocator creates tenant databases through an admin connection
// and migrates them with the embedded tenant schema.
func NewPostgresAllocator(admin repositories.Database, adminURL string) TenantStoreAllocator {
	return &postgresAllocator{admin: admin, adminURL: adminURL, migrate: migrations.Up}
}

func (a *postgresAllocator) Allocate(ctx context.Context, name string) error {
	var exists bool
	if err := a.admin.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return fmt.Errorf("check database: %w", err)
	}
	if exists {
		log.Warn().Str("store", name).Msg("tenant database already exists, resuming provisioning")
	} else {
		if _, err := a.admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != duplicateDatabase {
				return fmt.Errorf("create database: %w", err)
			}
		}
	}

	tenantURL, err := TenantDatabaseURL(a.adminURL, name)
	if err != nil {
		return err
	}
	return a.migrate(migrations.Tenant, tenantURL)
}

// TenantDatabaseURL points baseURL at the named database, keeping host,
// credentials and query options.
func TenantDatabaseURL(baseURL, name string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse admin database url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("admin database url must be a postgres:// url")
	}
	u.Path = "/" + name
	return u.String(), nil
}
