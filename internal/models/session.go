package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ConversationState tags which flow, if any, owns the next inbound message
// for a session. Outside an active flow it is StateNone.
type ConversationState string

const (
	StateNone              ConversationState = ""
	StateAwaitingRA        ConversationState = "awaiting_ra"
	StateAwaitingPassword  ConversationState = "awaiting_password"
	StateAwaitingCourse    ConversationState = "awaiting_course_choice"
	StateAwaitingTerm      ConversationState = "awaiting_term_choice"
)

// FlowScratch is transient key-value data shared between the steps of one
// flow (for example the RA typed before the password step). It must be
// cleared whenever the conversation state returns to StateNone.
type FlowScratch map[string]string

// Value serialises the scratch map for the JSONB column.
func (s FlowScratch) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal flow scratch: %w", err)
	}
	return string(raw), nil
}

// Scan loads the scratch map from its JSONB column.
func (s *FlowScratch) Scan(src interface{}) error {
	if src == nil {
		*s = FlowScratch{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported flow scratch type %T", src)
	}
	if len(raw) == 0 {
		*s = FlowScratch{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

// UserSession is the per-chat conversation record. One row exists per unique
// WhatsApp chat identifier; it is created lazily on the first inbound message
// and never deleted by the bot.
type UserSession struct {
	ID               string            `db:"id" json:"id"`
	ChatID           string            `db:"chat_id" json:"chat_id"`
	RA               *string           `db:"ra" json:"ra,omitempty"`
	PortalPassword   *string           `db:"portal_password_enc" json:"-"`
	Authenticated    bool              `db:"is_authenticated" json:"is_authenticated"`
	State            ConversationState `db:"current_state" json:"current_state"`
	SelectedCourseID *int64            `db:"selected_course_id" json:"selected_course_id,omitempty"`
	SelectedTermID   *int64            `db:"selected_term_id" json:"selected_term_id,omitempty"`
	Scratch          FlowScratch       `db:"flow_scratch" json:"-"`
	LastActivity     time.Time         `db:"last_activity" json:"last_activity"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}
