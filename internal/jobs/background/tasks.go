package background

import (
	"context"
	"fmt"
	"time"

	"reviso/internal/metrics"
	"reviso/internal/repositories"
	"reviso/internal/services"

	"github.com/rs/zerolog/log"
)

const (
	JobPendingSignupPurge = "pending-signup-purge"
	JobTenantReconcile    = "tenant-provisioning-reconcile"

	reconcileBatchSize = 50
)

// Tasks holds the maintenance work run by the scheduler and by revisoctl.
type Tasks struct {
	signups     repositories.PendingSignupRepository
	provisioner services.TenantProvisioningService
	now         func() time.Time
}

func NewTasks(signups repositories.PendingSignupRepository, provisioner services.TenantProvisioningService) *Tasks {
	return &Tasks{
		signups:     signups,
		provisioner: provisioner,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PurgeExpiredSignups deletes pending signups whose checkout window closed.
func (t *Tasks) PurgeExpiredSignups(ctx context.Context) (int64, error) {
	n, err := t.signups.DeleteExpired(ctx, t.now())
	if err != nil {
		recordRun(JobPendingSignupPurge, err)
		return 0, fmt.Errorf("purge expired signups: %w", err)
	}
	recordRun(JobPendingSignupPurge, nil)
	if n > 0 {
		log.Info().Str("job", JobPendingSignupPurge).Int64("deleted", n).Msg("expired signups purged")
	}
	return n, nil
}

// ReconcileTenants provisions active agencies left without a database.
func (t *Tasks) ReconcileTenants(ctx context.Context) (int, error) {
	n, err := t.provisioner.ReconcileUnprovisioned(ctx, reconcileBatchSize)
	recordRun(JobTenantReconcile, err)
	if err != nil {
		return n, fmt.Errorf("reconcile tenants: %w", err)
	}
	if n > 0 {
		log.Info().Str("job", JobTenantReconcile).Int("provisioned", n).Msg("unprovisioned tenants repaired")
	}
	return n, nil
}

func recordRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
		log.Error().Err(err).Str("job", job).Msg("background job failed")
	}
	metrics.JobRunsTotal.WithLabelValues(job, result).Inc()
}
