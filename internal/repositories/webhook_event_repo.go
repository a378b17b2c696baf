package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type WebhookEventRepository interface {
	// InsertIfAbsent records the event id. It returns false when the id was
	// already present, in which case nothing was written.
	InsertIfAbsent(ctx context.Context, eventID, eventType string, at time.Time) (bool, error)
}

type webhookEventRepo struct {
	db Database
}

func NewWebhookEventRepo(db Database) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) InsertIfAbsent(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING event_id
	`
	var inserted string
	err := r.db.QueryRow(ctx, query, eventID, eventType, at).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
