package domain

import "strings"

const (
	// EventEntityChanged is the single wire event carrying a ChangeEvent envelope.
	EventEntityChanged = "EntityChanged"

	SystemEntity = "system"

	EventSystemConnected = SystemEntity + ".connected"
	EventSystemPong      = SystemEntity + ".pong"
	EventSystemError     = SystemEntity + ".error"

	// DefaultGroup is the implicit group every websocket client joins on connect.
	DefaultGroup = "DataSync"

	// WildcardTopic subscribes to every entity type.
	WildcardTopic = "*"
)

// Command actions accepted from websocket clients. Matching is case-insensitive.
const (
	CommandJoinGroup  = "joingroup"
	CommandLeaveGroup = "leavegroup"
	CommandPing       = "ping"
)

// NormalizeCommand lower-cases and trims a client supplied action.
func NormalizeCommand(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

// NormalizeGroup trims a group name; an empty result means "no group".
func NormalizeGroup(group string) string {
	return strings.TrimSpace(group)
}
