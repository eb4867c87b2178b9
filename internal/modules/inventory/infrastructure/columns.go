package infrastructure

import (
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm/schema"

	"ventasWs/internal/modules/inventory/domain"
)

// modelColumns are the database columns a repository needs to know by name.
type modelColumns struct {
	primaryKey string
	active     string
	search     []string
	// activeOnly hides rows with the active flag cleared from List.
	activeOnly bool
}

// resolveColumns parses model with gorm and maps the JSON search field names
// of the record to their database columns.
func resolveColumns(model any, namer schema.Namer, searchFields []string) (modelColumns, error) {
	sch, err := schema.Parse(model, &sync.Map{}, namer)
	if err != nil {
		return modelColumns{}, fmt.Errorf("parse schema: %w", err)
	}
	if sch.PrioritizedPrimaryField == nil {
		return modelColumns{}, fmt.Errorf("model %s has no primary key", sch.Name)
	}
	cols := modelColumns{primaryKey: sch.PrioritizedPrimaryField.DBName}
	if field := sch.LookUpField("EsActivo"); field != nil {
		cols.active = field.DBName
		_, cols.activeOnly = model.(domain.ActiveOnly)
	}

	byJSON := make(map[string]string, len(sch.Fields))
	for _, field := range sch.Fields {
		if field.DBName == "" {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			byJSON[name] = field.DBName
		}
	}
	for _, name := range searchFields {
		column, ok := byJSON[name]
		if !ok {
			return modelColumns{}, fmt.Errorf("model %s: unknown search field %q", sch.Name, name)
		}
		cols.search = append(cols.search, column)
	}
	return cols, nil
}
