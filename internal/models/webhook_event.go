package models

import "time"

// WebhookEvent is an entry in the append-only ledger of provider events
// that have been accepted for processing.
type WebhookEvent struct {
	EventID     string    `json:"event_id" db:"event_id"`
	EventType   string    `json:"event_type" db:"event_type"`
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
}
