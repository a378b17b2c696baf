package services

import (
	"context"
	"testing"

	"reviso/internal/repositories"
	"reviso/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_ConcurrentDuplicateDeliveryDispatchesOnce(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	deliverConcurrently(t, repositories.NewStore(db.Pool), "evt_pg_race")

	var rows int
	err := db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM webhook_events WHERE event_id = $1`, "evt_pg_race").Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}
