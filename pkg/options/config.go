package options

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"sigs.k8s.io/yaml"

	"github.com/optics-team/prism-action-mapper/pkg/config"
	"github.com/optics-team/prism-action-mapper/pkg/pgschema"
)

// Printer writes a value (a generated config, a route table) for the user
type Printer func(v interface{}) error

// DiscardPrinter prints nothing
func DiscardPrinter(interface{}) error {
	return nil
}

var _ Printer = DiscardPrinter

// JSONPrinter prints indented JSON to w
func JSONPrinter(w io.Writer) Printer {
	return func(v interface{}) error {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(out)); err != nil {
			return err
		}
		return nil
	}
}

// YAMLPrinter prints YAML to w
func YAMLPrinter(w io.Writer) Printer {
	return func(v interface{}) error {
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, string(out)); err != nil {
			return err
		}
		return nil
	}
}

// PrinterFor returns the printer for an output format: yaml, json or none
func PrinterFor(format string, w io.Writer) (Printer, error) {
	switch format {
	case "yaml", "":
		return YAMLPrinter(w), nil
	case "json":
		return JSONPrinter(w), nil
	case "none":
		return DiscardPrinter, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ConfigOptions holds options for the action map
type ConfigOptions struct {
	MappingFile string

	Config config.ActionMap

	// ConfigPrinter prints the action map when it was generated rather than
	// loaded
	ConfigPrinter Printer
}

// Complete loads the action map from MappingFile, or generates a provisional
// one from the schema when no file is given
func (o *ConfigOptions) Complete(schema *pgschema.Schema, out io.Writer) error {
	if o.Config != nil {
		log.Debug().Msg("mapping config already set, skipping mapping option validation")
		o.ConfigPrinter = DiscardPrinter
		return nil
	}
	if len(o.MappingFile) > 0 {
		log.Info().Str("config", o.MappingFile).Msg("loading mapping config from file")
		m, err := config.Load(o.MappingFile)
		if err != nil {
			return err
		}
		o.Config = m
		o.ConfigPrinter = DiscardPrinter
		return nil
	}
	if schema == nil {
		return fmt.Errorf("no mapping config file set")
	}
	log.Info().Msg("generating mapping config from postgres schema")
	o.Config = schema.ToActionMap()
	o.ConfigPrinter = YAMLPrinter(out)
	return nil
}
