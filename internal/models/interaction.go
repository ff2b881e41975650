package models

import "time"

// MessageDirection distinguishes bot-sent from user-received messages in the
// interaction audit trail.
type MessageDirection string

const (
	DirectionSent     MessageDirection = "SENT"
	DirectionReceived MessageDirection = "RECEIVED"
)

// InteractionLog is one audited message, inbound or outbound, tied to the
// WAHA session that carried it.
type InteractionLog struct {
	ID          string           `db:"id" json:"id"`
	ChatID      string           `db:"chat_id" json:"chat_id"`
	Message     string           `db:"message" json:"message"`
	Direction   MessageDirection `db:"direction" json:"direction"`
	SessionName string           `db:"session_name" json:"session_name"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// InteractionFilter captures dashboard listing criteria for the audit trail.
type InteractionFilter struct {
	ChatID    string
	Direction *MessageDirection
	Since     *time.Time
	Page      int
	PageSize  int
}
