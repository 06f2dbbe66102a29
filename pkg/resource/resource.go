package resource

// Source is the handle of the data source an entity was read from. It is
// attached to every Resource and never inspected.
type Source interface{}

// Resource is the fully resolved description of an entity being exposed
type Resource struct {
	Name        string
	Kind        Kind
	PrimaryKeys []string
	Columns     []Column
	ForeignKeys []ForeignKey
	Extra       map[string]interface{}
	Source      Source
}

// Overlay holds per-entity overrides for the fields of a Resource. Nil fields
// keep the entity's value; Extra is merged key by key.
type Overlay struct {
	Name        *string                `json:"name,omitempty"`
	Kind        *Kind                  `json:"kind,omitempty"`
	PrimaryKeys []string               `json:"primaryKeys,omitempty"`
	Columns     []Column               `json:"columns,omitempty"`
	ForeignKeys []ForeignKey           `json:"foreignKeys,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// Resolve builds a Resource from the entity, then the overlay, then the
// source. The source always wins; overlay can be nil.
func Resolve(entity *Entity, overlay *Overlay, source Source) *Resource {
	r := &Resource{
		Name:        entity.Name,
		Kind:        entity.Kind,
		PrimaryKeys: copyStrings(entity.PrimaryKeys),
		Columns:     append([]Column(nil), entity.Columns...),
		ForeignKeys: append([]ForeignKey(nil), entity.ForeignKeys...),
	}
	if len(entity.Extra) > 0 {
		r.Extra = make(map[string]interface{}, len(entity.Extra))
		for k, v := range entity.Extra {
			r.Extra[k] = v
		}
	}

	if overlay != nil {
		if overlay.Name != nil {
			r.Name = *overlay.Name
		}
		if overlay.Kind != nil {
			r.Kind = *overlay.Kind
		}
		if overlay.PrimaryKeys != nil {
			r.PrimaryKeys = copyStrings(overlay.PrimaryKeys)
		}
		if overlay.Columns != nil {
			r.Columns = append([]Column(nil), overlay.Columns...)
		}
		if overlay.ForeignKeys != nil {
			r.ForeignKeys = append([]ForeignKey(nil), overlay.ForeignKeys...)
		}
		if len(overlay.Extra) > 0 && r.Extra == nil {
			r.Extra = make(map[string]interface{}, len(overlay.Extra))
		}
		for k, v := range overlay.Extra {
			r.Extra[k] = v
		}
	}

	r.Source = source
	return r
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
