package normalization

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Wildcard is the entity marker meaning "every entity type".
const Wildcard = "*"

// entityAliases maps the spellings seen across the REST routes, the UI and older
// publishers to the canonical PascalCase singular entity name.
var entityAliases = map[string]string{
	"producto":  "Producto",
	"productos": "Producto",
	"product":   "Producto",
	"products":  "Producto",

	"categoria":  "Categoria",
	"categorias": "Categoria",
	"category":   "Categoria",
	"categories": "Categoria",

	"proveedor":   "Proveedor",
	"proveedores": "Proveedor",
	"supplier":    "Proveedor",
	"suppliers":   "Proveedor",

	"usuario":  "Usuario",
	"usuarios": "Usuario",
	"user":     "Usuario",
	"users":    "Usuario",

	"ingreso":  "Ingreso",
	"ingresos": "Ingreso",
	"income":   "Ingreso",

	"egreso":   "Egreso",
	"egresos":  "Egreso",
	"expense":  "Egreso",
	"expenses": "Egreso",

	"venta":  "Venta",
	"ventas": "Venta",
	"sale":   "Venta",
	"sales":  "Venta",
}

// CanonicalEntity converts any accepted spelling into the canonical entity type.
//
// Example:
//
//	CanonicalEntity(" productos ") => "Producto"
//	CanonicalEntity("CATEGORIA")   => "Categoria"
//	CanonicalEntity("devolucion")  => "Devolucion"
func CanonicalEntity(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == Wildcard {
		return trimmed
	}
	lowered := strings.ToLower(trimmed)
	if canonical, ok := entityAliases[lowered]; ok {
		return canonical
	}
	first, size := utf8.DecodeRuneInString(lowered)
	return string(unicode.ToUpper(first)) + lowered[size:]
}

// RouteSlug returns the lower-case path segment used by the REST API for entityType.
func RouteSlug(entityType string) string {
	return strings.ToLower(CanonicalEntity(entityType))
}

// IsKnownEntity reports whether raw resolves to one of the managed entity types.
func IsKnownEntity(raw string) bool {
	canonical := CanonicalEntity(raw)
	for _, known := range entityAliases {
		if known == canonical {
			return true
		}
	}
	return false
}
