package domain

import "ventasWs/internal/shared/normalization"

const (
	EntityProducto  = "Producto"
	EntityCategoria = "Categoria"
	EntityProveedor = "Proveedor"
	EntityUsuario   = "Usuario"
	EntityIngreso   = "Ingreso"
	EntityEgreso    = "Egreso"
	EntityVenta     = "Venta"
)

// DeletePolicy decides how a deleted event is published and reconciled.
type DeletePolicy int

const (
	// DeleteByShape flags the row inactive when the event carries a record and
	// removes it when the event carries only an identifier.
	DeleteByShape DeletePolicy = iota
	// DeleteRemove publishes the identifier and removes the row.
	DeleteRemove
	// DeleteSoft publishes the inactive record and keeps the row, flipping ActiveField.
	DeleteSoft
)

func (p DeletePolicy) String() string {
	switch p {
	case DeleteRemove:
		return "remove"
	case DeleteSoft:
		return "soft"
	default:
		return "by-shape"
	}
}

// DefaultActiveField is the soft-delete flag used by every managed entity.
const DefaultActiveField = "esActivo"

// EntityPolicy binds an entity type to its identifier field and delete handling.
type EntityPolicy struct {
	EntityType  string
	IDField     string
	Delete      DeletePolicy
	ActiveField string
}

var entityPolicies = map[string]EntityPolicy{
	EntityProducto:  {EntityType: EntityProducto, IDField: "idProducto", Delete: DeleteSoft, ActiveField: DefaultActiveField},
	EntityCategoria: {EntityType: EntityCategoria, IDField: "idCategoria", Delete: DeleteSoft, ActiveField: DefaultActiveField},
	EntityProveedor: {EntityType: EntityProveedor, IDField: "idProveedor", Delete: DeleteSoft, ActiveField: DefaultActiveField},
	EntityUsuario:   {EntityType: EntityUsuario, IDField: "idUsuario", Delete: DeleteSoft, ActiveField: DefaultActiveField},
	EntityIngreso:   {EntityType: EntityIngreso, IDField: "idIngreso", Delete: DeleteRemove, ActiveField: DefaultActiveField},
	EntityEgreso:    {EntityType: EntityEgreso, IDField: "idEgreso", Delete: DeleteRemove, ActiveField: DefaultActiveField},
	EntityVenta:     {EntityType: EntityVenta, IDField: "idVenta", Delete: DeleteRemove},
}

// PolicyFor returns the policy registered for entityType. Unknown types fall
// back to an "id" identifier with delete handling decided by payload shape.
func PolicyFor(entityType string) EntityPolicy {
	canonical := normalization.CanonicalEntity(entityType)
	if policy, ok := entityPolicies[canonical]; ok {
		return policy
	}
	return EntityPolicy{EntityType: canonical, IDField: "id", Delete: DeleteByShape, ActiveField: DefaultActiveField}
}

// KnownEntityTypes lists the managed entity types in a stable order.
func KnownEntityTypes() []string {
	return []string{EntityProducto, EntityCategoria, EntityProveedor, EntityUsuario, EntityIngreso, EntityEgreso, EntityVenta}
}
