// Package domain – idempotency records for safe message-send retries.
package domain

import "time"

// Idempotency records the outcome of a previously processed DM send, keyed by
// (sender_id, target_id, key). TargetID is the raw {id} path segment of the
// send request, which may name either a conversation or a participant; the
// stored MessageID lets a retried request replay the original result without
// inserting a second message.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	SenderID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_sender_target_key,priority:1"`
	TargetID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_sender_target_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_sender_target_key,priority:3"`
	MessageID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
