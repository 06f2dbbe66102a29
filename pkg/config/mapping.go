package config

import (
	"bytes"
	"encoding/json"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/optics-team/prism-action-mapper/pkg/action"
	"github.com/optics-team/prism-action-mapper/pkg/resource"
	"github.com/optics-team/prism-action-mapper/pkg/security"
)

// ActionMap maps entity names to the source of their configuration entry
type ActionMap map[string]EntrySource

// Entry configures what is registered for one entity. Every field is
// optional; a present sub-configuration is enough to trigger registration.
type Entry struct {
	Resource *resource.Overlay `json:"resource,omitempty"`
	Backend  *BackendConfig    `json:"backend,omitempty"`

	ReadItem       *ActionConfig `json:"readItem,omitempty"`
	ReadCollection *ActionConfig `json:"readCollection,omitempty"`
	CreateItem     *ActionConfig `json:"createItem,omitempty"`
	UpdateItem     *ActionConfig `json:"updateItem,omitempty"`
	DeleteItem     *ActionConfig `json:"deleteItem,omitempty"`
}

// ActionConfig configures one action. Merge is applied after construction,
// then Public replaces the route configuration with optional auth.
type ActionConfig struct {
	Public  bool            `json:"public,omitempty"`
	Merge   *action.Merge   `json:"merge,omitempty"`
	Options *action.Options `json:"options,omitempty"`
}

// ActionOptions returns the construction options, zero if unset
func (c *ActionConfig) ActionOptions() action.Options {
	if c.Options == nil {
		return action.Options{}
	}
	return *c.Options
}

// BackendConfig configures the security backend for a resource
type BackendConfig struct {
	Options *security.Options `json:"options,omitempty"`
	Merge   *security.Merge   `json:"merge,omitempty"`
}

// BackendOptions returns the construction options, zero if unset
func (c *BackendConfig) BackendOptions() security.Options {
	if c.Options == nil {
		return security.Options{}
	}
	return *c.Options
}

// Action returns the sub-configuration for kind, or nil if there is none
func (e *Entry) Action(kind action.Kind) *ActionConfig {
	switch kind {
	case action.KindReadItem:
		return e.ReadItem
	case action.KindReadCollection:
		return e.ReadCollection
	case action.KindCreateItem:
		return e.CreateItem
	case action.KindUpdateItem:
		return e.UpdateItem
	case action.KindDeleteItem:
		return e.DeleteItem
	default:
		return nil
	}
}

// EntrySource produces the configuration entry for an entity. A nil entry
// means the entity is skipped.
type EntrySource interface {
	Resolve(entity *resource.Entity) (*Entry, error)
}

// Static is an EntrySource that always returns the same entry
type Static struct {
	Entry *Entry
}

func (s Static) Resolve(*resource.Entity) (*Entry, error) {
	return s.Entry, nil
}

// Dynamic is an EntrySource computed from the entity, for example to vary
// primary keys with the shape of the table
type Dynamic func(entity *resource.Entity) (*Entry, error)

func (d Dynamic) Resolve(entity *resource.Entity) (*Entry, error) {
	return d(entity)
}

var (
	_ EntrySource = Static{}
	_ EntrySource = Dynamic(nil)
)

// Lookup resolves the entry for entity. It returns nil if the map has no
// source for the entity or the source returns no entry.
func (m ActionMap) Lookup(entity *resource.Entity) (*Entry, error) {
	src, ok := m[entity.Name]
	if !ok || src == nil {
		return nil, nil
	}
	return src.Resolve(entity)
}

// UnmarshalJSON decodes a map of static entries, rejecting unknown fields
func (m *ActionMap) UnmarshalJSON(b []byte) error {
	entries := make(map[string]*Entry, 0)
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return err
	}
	*m = make(ActionMap, len(entries))
	for name, e := range entries {
		(*m)[name] = Static{Entry: e}
	}
	return nil
}

// MarshalJSON encodes the static entries of the map. Dynamic entries have no
// serialized form and are left out.
func (m ActionMap) MarshalJSON() ([]byte, error) {
	entries := make(map[string]*Entry, len(m))
	for name, src := range m {
		if s, ok := src.(Static); ok {
			entries[name] = s.Entry
		}
	}
	return json.Marshal(entries)
}

// Parse decodes a YAML or JSON action map
func Parse(contents []byte) (ActionMap, error) {
	var m ActionMap
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads an action map from a YAML or JSON file
func Load(path string) (ActionMap, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(contents)
}
