package write

import (
	"context"
	"strings"

	v1 "github.com/authzed/authzed-go/proto/authzed/api/v1"
	"github.com/authzed/authzed-go/v1"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppendSchemaWriter appends a schema fragment to a spicedb schema
type AppendSchemaWriter interface {
	Write(context.Context, string) error
}

// SchemaReader is the part of the authzed client needed to read the current
// schema
type SchemaReader interface {
	ReadSchema(ctx context.Context, req *v1.ReadSchemaRequest, opts ...grpc.CallOption) (*v1.ReadSchemaResponse, error)
}

// NewSchemaAppendWriter returns a writer for client; when dryRun is set the
// schema is only logged.
func NewSchemaAppendWriter(client *authzed.Client, dryRun bool) AppendSchemaWriter {
	if dryRun {
		return NewDryRunSchemaAppendWriter(client)
	}
	return NewStdSchemaAppendWriter(client)
}

// StdSchemaAppendWriter writes via an authzed client, no-frills.
type StdSchemaAppendWriter struct {
	client *authzed.Client
}

// NewStdSchemaAppendWriter constructs a new schema append writer that writes
// to spicedb.
func NewStdSchemaAppendWriter(client *authzed.Client) *StdSchemaAppendWriter {
	return &StdSchemaAppendWriter{client: client}
}

func (w *StdSchemaAppendWriter) Write(ctx context.Context, schema string) error {
	existing, err := readSchema(ctx, w.client)
	if err != nil {
		return err
	}
	fullSchema := appendSchema(existing, schema)
	if fullSchema == existing {
		log.Info().Msg("all definitions already present, skipping schema write")
		return nil
	}
	log.Info().Msg("writing schema")
	log.Debug().Str("schema", fullSchema).Send()
	_, err = w.client.WriteSchema(ctx, &v1.WriteSchemaRequest{
		Schema: fullSchema,
	})
	return err
}

// DryRunSchemaAppendWriter prints what the schema would have been.
type DryRunSchemaAppendWriter struct {
	reader SchemaReader
}

// NewDryRunSchemaAppendWriter constructs a new schema append writer that logs
// but doesn't write. If client is non-nil, it will attempt to read the existing
// schema from spicedb; otherwise it will assume the schema is empty.
func NewDryRunSchemaAppendWriter(client *authzed.Client) *DryRunSchemaAppendWriter {
	if client == nil {
		return &DryRunSchemaAppendWriter{}
	}
	return &DryRunSchemaAppendWriter{reader: client}
}

func (w *DryRunSchemaAppendWriter) Write(ctx context.Context, schema string) error {
	existing, err := readSchema(ctx, w.reader)
	if err != nil {
		return err
	}
	log.Info().Msg("schema write skipped")
	log.Debug().Str("schema", appendSchema(existing, schema)).Send()
	return nil
}

// DiscardingSchemaAppendWriter does nothing but satisfy AppendSchemaWriter
type DiscardingSchemaAppendWriter struct{}

func (w DiscardingSchemaAppendWriter) Write(ctx context.Context, schema string) error {
	return nil
}

func readSchema(ctx context.Context, reader SchemaReader) (string, error) {
	if reader == nil {
		return "", nil
	}
	resp, err := reader.ReadSchema(ctx, &v1.ReadSchemaRequest{})
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return resp.SchemaText, nil
}

// appendSchema appends the definitions in fragment that are not already
// defined in initial
func appendSchema(initial, fragment string) string {
	defined := make(map[string]struct{}, 0)
	for _, def := range splitDefinitions(initial) {
		defined[def.name] = struct{}{}
	}
	var b strings.Builder
	b.WriteString(initial)
	for _, def := range splitDefinitions(fragment) {
		if _, ok := defined[def.name]; ok {
			log.Debug().Str("definition", def.name).Msg("definition already present")
			continue
		}
		defined[def.name] = struct{}{}
		b.WriteString(def.text)
	}
	return b.String()
}

// DefinitionNames returns the names of the object types defined in schema,
// in order
func DefinitionNames(schema string) []string {
	defs := splitDefinitions(schema)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.name)
	}
	return names
}

type definition struct {
	name string
	text string
}

// splitDefinitions cuts a schema at each top-level `definition` keyword.
// Text before the first definition is kept with it.
func splitDefinitions(schema string) []definition {
	defs := make([]definition, 0)
	lines := strings.SplitAfter(schema, "\n")
	var current *definition
	var pending strings.Builder
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "definition" {
			if current != nil {
				defs = append(defs, *current)
			}
			current = &definition{
				name: strings.TrimSuffix(fields[1], "{"),
				text: pending.String(),
			}
			pending.Reset()
		}
		if current == nil {
			pending.WriteString(line)
			continue
		}
		current.text += line
	}
	if current != nil {
		defs = append(defs, *current)
	}
	return defs
}
