package security

import (
	"fmt"
	"strings"

	"github.com/optics-team/prism-action-mapper/pkg/resource"
	"github.com/optics-team/prism-action-mapper/pkg/write"
)

// Options configure a Backend. Redact replaces the values of fields the
// caller is not permitted to read.
type Options struct {
	Redact string `json:"redact,omitempty"`
}

// Backend guards a single resource. Schema is the zed definition fragment
// that describes the resource to SpiceDB.
type Backend struct {
	Resource *resource.Resource
	Options  Options
	Schema   string
}

// Constructor builds a Backend for a resource
type Constructor func(res *resource.Resource, opts Options) (*Backend, error)

var _ Constructor = New

// New returns a Backend for res whose schema has one relation per foreign key
func New(res *resource.Resource, opts Options) (*Backend, error) {
	if res == nil || res.Name == "" {
		return nil, fmt.Errorf("security backend requires a named resource")
	}
	return &Backend{
		Resource: res,
		Options:  opts,
		Schema:   Definition(res.Name, res.ForeignKeys),
	}, nil
}

// Merge is a partial update applied to a constructed backend
type Merge struct {
	Schema *string `json:"schema,omitempty"`
	Redact *string `json:"redact,omitempty"`
}

// Apply overlays m onto b. A nil Merge is a no-op.
func (m *Merge) Apply(b *Backend) {
	if m == nil {
		return
	}
	if m.Schema != nil {
		b.Schema = *m.Schema
	}
	if m.Redact != nil {
		b.Options.Redact = *m.Redact
	}
}

// Definition generates a zed definition for an object type, with one
// relation per foreign key pointing at the referenced type
func Definition(name string, fks []resource.ForeignKey) string {
	var b strings.Builder
	b.WriteString("\ndefinition " + name)
	if len(fks) == 0 {
		b.WriteString(" {}\n")
		return b.String()
	}
	b.WriteString(" {\n")
	for _, fk := range fks {
		b.WriteString("    relation " + fk.Name + ": " + fk.Table + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// UndefinedTypes lists the object types that relations in schema point at
// but that schema does not define, in order of first reference
func UndefinedTypes(schema string) []string {
	defined := make(map[string]struct{}, 0)
	for _, name := range write.DefinitionNames(schema) {
		defined[name] = struct{}{}
	}
	missing := make([]string, 0)
	for _, line := range strings.Split(schema, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "relation" {
			continue
		}
		i := strings.Index(line, ":")
		if i < 0 {
			continue
		}
		for _, target := range strings.Split(line[i+1:], "|") {
			// subject relations look like `group#member`
			name := strings.TrimSpace(strings.SplitN(target, "#", 2)[0])
			if name == "" {
				continue
			}
			if _, ok := defined[name]; ok {
				continue
			}
			defined[name] = struct{}{}
			missing = append(missing, name)
		}
	}
	return missing
}
