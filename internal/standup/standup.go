// Package standup implements the standup engine: the recurring-job
// scheduler, the per-member interview state machine and the orchestrator
// that republishes collected answers to the room. The chat transport and
// the persistent store are injected through the Messenger and Store
// interfaces.
package standup

import "context"

// Answer fields collected by an interview, in question order.
const (
	FieldYday     = "yday"
	FieldToday    = "today"
	FieldBlockers = "blockers"
)

// RoomConfig is one room's standup configuration. A room that has never
// been configured reads as an empty RoomConfig, never as an error.
type RoomConfig struct {
	RoomID  string
	Members map[string]string // member id -> display name
	Rule    *Rule             // nil when not scheduled
}

// Interview holds one member's answers for the current cycle. Fields are
// nil until the matching question has been answered. The record survives
// completion and is overwritten field by field on the next cycle.
type Interview struct {
	Yday     *string
	Today    *string
	Blockers *string
}

// Store is the persistence bridge the engine writes through. Every
// mutation must be durable before the call returns; reads of missing
// records return empty defaults.
type Store interface {
	Room(ctx context.Context, roomID string) (RoomConfig, error)
	AllRooms(ctx context.Context) ([]RoomConfig, error)
	AddMember(ctx context.Context, roomID, memberID, name string) error
	RemoveMember(ctx context.Context, roomID, memberID string) error
	SetRule(ctx context.Context, roomID string, rule Rule) error
	ClearRule(ctx context.Context, roomID string) error
	MergeAnswer(ctx context.Context, roomID, memberID, field, text string) error
	Interview(ctx context.Context, roomID, memberID string) (Interview, error)
}

// Messenger is the chat transport the engine talks through.
type Messenger interface {
	// SendToRoom publishes text to a room channel.
	SendToRoom(roomID, text string) error
	// OpenDirect resolves the private channel for a member, creating it
	// if needed.
	OpenDirect(memberID, name string) (channelID string, err error)
	// SendDirect sends text over a private channel.
	SendDirect(channelID, text string) error
}
