// Package models defines the core data structures for linerelay.
//
// It includes the canonical inbound event, routing state, activity records
// and reservation session types shared across modules.
package models

import (
	"errors"
	"fmt"
)

// EventKind identifies the kind of inbound platform event.
type EventKind string

const (
	// EventKindText is a free-text message from a user.
	EventKindText EventKind = "text"
	// EventKindSticker is a sticker message from a user.
	EventKindSticker EventKind = "sticker"
	// EventKindPostback is a structured payload from an inline button press.
	EventKindPostback EventKind = "postback"
)

// Mode identifies which actor is responsible for replying to a user.
type Mode string

const (
	// ModeAutoAI means the bot replies automatically.
	ModeAutoAI Mode = "auto_ai"
	// ModeOwnerManual means the shop owner has taken over the conversation.
	ModeOwnerManual Mode = "owner_manual"
	// ModeStaffManual means a staff member has taken over the conversation.
	ModeStaffManual Mode = "staff_manual"
)

// CoerceMode maps an arbitrary string onto a recognized Mode.
// Anything outside the three known members collapses to ModeAutoAI.
func CoerceMode(s string) Mode {
	switch Mode(s) {
	case ModeAutoAI, ModeOwnerManual, ModeStaffManual:
		return Mode(s)
	default:
		return ModeAutoAI
	}
}

// Sender identifies who produced a logged message.
type Sender string

const (
	// SenderUser marks a message written by the end user.
	SenderUser Sender = "user"
	// SenderBot marks an automated reply.
	SenderBot Sender = "bot"
	// SenderAgent marks a message written by a human agent.
	SenderAgent Sender = "agent"
)

// Error variables for better error handling and testability
var (
	ErrEmptyUserID       = errors.New("user id cannot be empty")
	ErrEmptyReplyToken   = errors.New("reply token cannot be empty")
	ErrInvalidEventKind  = errors.New("invalid event kind")
	ErrEmptyActivityType = errors.New("activity record type cannot be empty")
)

// CanonicalEvent is the normalized form of an inbound platform event.
// Exactly one payload group is populated depending on Kind: Text for text
// events, StickerPackageID/StickerID for sticker events, PostbackData for
// postback events.
type CanonicalEvent struct {
	Kind              EventKind `json:"kind"`
	UserID            string    `json:"user_id"`
	MessageID         string    `json:"message_id,omitempty"`
	Text              string    `json:"text,omitempty"`
	StickerPackageID  string    `json:"sticker_package_id,omitempty"`
	StickerID         string    `json:"sticker_id,omitempty"`
	PostbackData      string    `json:"postback_data,omitempty"`
	TimestampMs       int64     `json:"timestamp_ms"`
	ReplyToken        string    `json:"reply_token"`
}

// IsValidEventKind checks if the given event kind is supported.
func IsValidEventKind(k EventKind) bool {
	switch k {
	case EventKindText, EventKindSticker, EventKindPostback:
		return true
	default:
		return false
	}
}

// Validate performs basic validation on a CanonicalEvent.
func (e *CanonicalEvent) Validate() error {
	if !IsValidEventKind(e.Kind) {
		return ErrInvalidEventKind
	}
	return nil
}

// RoutingState describes who currently handles a user's conversation.
// It is owned by the external store; this process only reads it.
type RoutingState struct {
	UserID             string `json:"user_id"`
	Mode               Mode   `json:"mode"`
	OwnerAgentID       string `json:"owner_agent_id"`
	LastModeChangeAtMs int64  `json:"last_mode_change_at_ms"`
	// HasLastModeChange distinguishes "never changed" from a zero timestamp.
	HasLastModeChange bool `json:"has_last_mode_change"`
}

// ActivityRecord is one logged message, forwarded to the external store.
// EventID is the deduplication key ({messageId}:{sender}, or a synthesized
// id for postbacks); an empty EventID means no deduplication is possible
// for that record.
type ActivityRecord struct {
	EventID          string `json:"event_id,omitempty"`
	UserID           string `json:"line_user_id"`
	Type             string `json:"type"`
	Text             string `json:"text"`
	StickerPackageID string `json:"sticker_package_id"`
	StickerID        string `json:"sticker_id"`
	Sender           Sender `json:"sender"`
	Timestamp        string `json:"timestamp"`
	DisplayPersona   string `json:"display_persona,omitempty"`
	SentByAgentID    string `json:"sent_by_agent_id,omitempty"`
}

// Validate performs basic validation on an ActivityRecord.
func (r *ActivityRecord) Validate() error {
	if r.Type == "" {
		return ErrEmptyActivityType
	}
	switch r.Sender {
	case SenderUser, SenderBot, SenderAgent:
		return nil
	default:
		return fmt.Errorf("invalid sender %q", r.Sender)
	}
}

// EventID derives the deterministic deduplication key for a logged message.
// Records without a message id get an empty key and are accepted as a
// deduplication gap.
func EventID(messageID string, sender Sender) string {
	if messageID == "" {
		return ""
	}
	return messageID + ":" + string(sender)
}

// ReservationStep identifies the current step of a reservation dialogue.
type ReservationStep string

const (
	// StepIdle means no reservation dialogue is in progress.
	StepIdle ReservationStep = "idle"
	// StepWaitingDate means the flow is waiting for a date.
	StepWaitingDate ReservationStep = "waiting_date"
	// StepWaitingTime means the flow is waiting for a time of day.
	StepWaitingTime ReservationStep = "waiting_time"
	// StepWaitingInfo means the flow is waiting for name/phone/model.
	StepWaitingInfo ReservationStep = "waiting_info"
	// StepConfirming means the flow is waiting for a confirmation token.
	StepConfirming ReservationStep = "confirming"
)

// ReservationSession is the per-user multi-step dialogue state. It lives in
// process memory only and is lost on restart.
type ReservationSession struct {
	Step  ReservationStep `json:"step"`
	Date  string          `json:"date"`
	Time  string          `json:"time"`
	Name  string          `json:"name"`
	Phone string          `json:"phone"`
	Model string          `json:"model"`
}

// InProgress reports whether a reservation dialogue is currently engaged.
func (s *ReservationSession) InProgress() bool {
	return s.Step != "" && s.Step != StepIdle
}
