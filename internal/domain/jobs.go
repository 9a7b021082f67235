package domain

import (
	"context"
	"encoding/json"
	"time"
)

// UpdateJob — апдейт Telegram, принятый вебхуком и ожидающий обработки.
type UpdateJob struct {
	ID         string          `json:"job_id"`
	UpdateID   int             `json:"update_id"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// UpdateQueue описывает очередь апдейтов между гейтвеем и воркером.
type UpdateQueue interface {
	Enqueue(ctx context.Context, job UpdateJob) error
	Pop(ctx context.Context) (UpdateJob, error)
}
