package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ventasWs/internal/shared/normalization"
)

var (
	ErrEmptyEntityType = errors.New("change event entity type is empty")
	ErrUnknownAction   = errors.New("change event action is unknown")
	ErrMissingPayload  = errors.New("change event payload is missing")
)

// Action is the kind of mutation a ChangeEvent describes.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ParseAction accepts the lower-case wire values as well as the PascalCase
// spelling used by older publishers ("Created", "EntityUpdated").
func ParseAction(raw string) (Action, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "entity")
	switch Action(normalized) {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return Action(normalized), true
	default:
		return "", false
	}
}

// ChangeEvent describes one committed mutation of one entity instance.
// Data carries the full record for created and updated events and for soft
// deletes; ID carries the identifier for deletes that remove the row.
type ChangeEvent struct {
	EntityType string    `json:"entityType"`
	Action     Action    `json:"action"`
	Data       any       `json:"data,omitempty"`
	ID         any       `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeEvent canonicalizes the entity type and validates the result.
func NewChangeEvent(entityType string, action Action, data, id any, at time.Time) (ChangeEvent, error) {
	event := ChangeEvent{
		EntityType: normalization.CanonicalEntity(entityType),
		Action:     action,
		Data:       data,
		ID:         id,
		Timestamp:  at.UTC(),
	}
	if err := event.Validate(); err != nil {
		return ChangeEvent{}, err
	}
	return event, nil
}

// Validate checks the invariants every published event must hold.
func (e ChangeEvent) Validate() error {
	if strings.TrimSpace(e.EntityType) == "" || e.EntityType == WildcardTopic {
		return ErrEmptyEntityType
	}
	switch e.Action {
	case ActionCreated, ActionUpdated:
		if e.Data == nil {
			return fmt.Errorf("%w: %s %s requires data", ErrMissingPayload, e.EntityType, e.Action)
		}
	case ActionDeleted:
		if e.Data == nil && e.ID == nil {
			return fmt.Errorf("%w: %s deleted requires id or data", ErrMissingPayload, e.EntityType)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
	return nil
}

// Topic is the registry key the event is dispatched under.
func (e ChangeEvent) Topic() string {
	return normalization.CanonicalEntity(e.EntityType)
}
