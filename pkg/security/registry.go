package security

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/optics-team/prism-action-mapper/pkg/write"
)

// Registry accepts constructed backends on behalf of the host's security
// subsystem
type Registry interface {
	RegisterBackend(b *Backend) error
}

// SchemaRegistry collects backends and writes their definitions to SpiceDB
// on Flush. It is safe to use from multiple goroutines.
type SchemaRegistry struct {
	sync.Mutex

	writer   write.AppendSchemaWriter
	backends []*Backend
	names    map[string]struct{}
}

var _ Registry = &SchemaRegistry{}

// NewSchemaRegistry returns a SchemaRegistry that flushes through writer
func NewSchemaRegistry(writer write.AppendSchemaWriter) *SchemaRegistry {
	return &SchemaRegistry{
		writer:   writer,
		backends: make([]*Backend, 0),
		names:    make(map[string]struct{}, 0),
	}
}

// RegisterBackend adds b, failing if a backend already guards the same
// resource
func (r *SchemaRegistry) RegisterBackend(b *Backend) error {
	r.Lock()
	defer r.Unlock()

	name := b.Resource.Name
	if _, ok := r.names[name]; ok {
		return fmt.Errorf("security backend already registered for resource %q", name)
	}
	r.names[name] = struct{}{}
	r.backends = append(r.backends, b)
	return nil
}

// Backends returns the registered backends in registration order
func (r *SchemaRegistry) Backends() []*Backend {
	r.Lock()
	defer r.Unlock()
	return append([]*Backend(nil), r.backends...)
}

// Schema concatenates the definitions of every registered backend. Types
// referenced by a relation but guarded by no backend get an empty
// definition so the schema stays valid.
func (r *SchemaRegistry) Schema() string {
	var b strings.Builder
	for _, backend := range r.Backends() {
		b.WriteString(backend.Schema)
	}
	defined := b.String()
	for _, name := range UndefinedTypes(defined) {
		log.Debug().Str("definition", name).Msg("adding empty definition for relation target")
		b.WriteString(Definition(name, nil))
	}
	return b.String()
}

// Flush appends the collected schema to SpiceDB
func (r *SchemaRegistry) Flush(ctx context.Context) error {
	schema := r.Schema()
	if schema == "" {
		log.Info().Msg("no security backends registered, skipping schema write")
		return nil
	}
	return r.writer.Write(ctx, schema)
}
