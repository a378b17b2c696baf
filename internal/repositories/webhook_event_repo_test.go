package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertEventSQL = `INSERT INTO webhook_events \(event_id, event_type, processed_at\)\s+VALUES \(\$1, \$2, \$3\)\s+ON CONFLICT \(event_id\) DO NOTHING\s+RETURNING event_id`

func TestWebhookEventRepo_InsertIfAbsent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertEventSQL).
		WithArgs("evt_1", "invoice.paid", at).
		WillReturnRows(pgxmock.NewRows([]string{"event_id"}).AddRow("evt_1"))
	mock.ExpectQuery(insertEventSQL).
		WithArgs("evt_1", "invoice.paid", at).
		WillReturnError(pgx.ErrNoRows)

	inserted, err := repo.InsertIfAbsent(context.Background(), "evt_1", "invoice.paid", at)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(context.Background(), "evt_1", "invoice.paid", at)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert of the same id must be a no-op")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_InsertIfAbsent_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(insertEventSQL).
		WillReturnError(errors.New("connection reset"))

	inserted, err := NewWebhookEventRepo(mock).InsertIfAbsent(context.Background(), "evt_2", "invoice.paid", time.Now())
	assert.Error(t, err)
	assert.False(t, inserted)
}
