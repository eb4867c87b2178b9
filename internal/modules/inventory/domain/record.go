package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Record is implemented by every model exposed through the REST API.
type Record interface {
	EntityType() string
	PrimaryKey() int
	SetPrimaryKey(id int)
	// SearchFields names the JSON fields matched by the list search term.
	SearchFields() []string
}

// Activatable is implemented by models deleted by clearing their active flag.
type Activatable interface {
	SetActive(active bool)
}

// ActiveOnly lo implementan los movimientos de caja: al eliminarse el
// registro se conserva inactivo y deja de aparecer en los listados.
type ActiveOnly interface {
	Active() bool
}

func isActive(flag *bool) bool { return flag == nil || *flag }

// Defaulter fills registration defaults before a record is first stored.
type Defaulter interface {
	ApplyDefaults(now time.Time)
}

// Entity constrains a pointer to a model type.
type Entity[E any] interface {
	*E
	Record
}

func boolPtr(v bool) *bool { return &v }

func stampDefaults(active **bool, registered **time.Time, now time.Time) {
	if active != nil && *active == nil {
		*active = boolPtr(true)
	}
	if registered != nil && *registered == nil {
		at := now.UTC()
		*registered = &at
	}
}
