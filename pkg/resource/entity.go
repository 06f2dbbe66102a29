package resource

// Kind distinguishes tables from views
type Kind string

const (
	KindTable Kind = "table"
	KindView  Kind = "view"
)

// Column is the name and type of a column
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ForeignKey indicates that Columns on the owning entity reference the primary
// key of the entity named Table
type ForeignKey struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Table   string   `json:"table"`
}

// Entity describes a table or view discovered in a data source. Entities are
// treated as read-only once produced.
type Entity struct {
	Name        string                 `json:"name"`
	Kind        Kind                   `json:"kind,omitempty"`
	PrimaryKeys []string               `json:"primaryKeys,omitempty"`
	Columns     []Column               `json:"columns,omitempty"`
	ForeignKeys []ForeignKey           `json:"foreignKeys,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}
