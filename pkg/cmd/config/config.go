package config

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jzelinskie/cobrautil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optics-team/prism-action-mapper/pkg/options"
	"github.com/optics-team/prism-action-mapper/pkg/pgschema"
	"github.com/optics-team/prism-action-mapper/pkg/streams"
	"github.com/optics-team/prism-action-mapper/pkg/util"
)

// NewConfigCmd configures a new cobra command for generating configs based on
// an existing postgres instance.
func NewConfigCmd(ctx context.Context, streams streams.IO) *cobra.Command {
	o := NewOptions(streams)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "generate a new action map based on a connected pg instance.",
		// logs to stderr so that stdout only contains the generated config
		PreRunE: util.ZeroLogPreRunEFunc(o.IO.ErrOut),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(); err != nil {
				return err
			}
			return o.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&o.PostgresURI, "postgres", "", "address for the postgres endpoint")
	cmd.Flags().StringVar(&o.PostgresSchema, "schema", pgschema.DefaultSchema, "postgres schema whose tables and views are inspected")
	cmd.Flags().StringSliceVar(&o.Tables, "tables", nil, "only include these tables and views (default: all)")
	cmd.Flags().StringVar(&o.Output, "output", "yaml", "format of the generated config: yaml or json")
	cmd.Flags().BoolVar(&o.ZedSchema, "zed-schema", false, "print an example zed schema instead of an action map")
	cobrautil.RegisterZeroLogFlags(cmd.Flags(), "log")

	return cmd
}

// Options holds options for the config generator
type Options struct {
	streams.IO
	options.PostgresOptions

	Tables    []string
	Output    string
	ZedSchema bool

	printer options.Printer
}

// NewOptions returns initialized Options
func NewOptions(ioStreams streams.IO) *Options {
	return &Options{
		IO: ioStreams,
	}
}

// Complete fills out default values before running
func (o *Options) Complete() error {
	if err := o.PostgresOptions.Complete(); err != nil {
		return err
	}
	p, err := options.PrinterFor(o.Output, o.Out)
	if err != nil {
		return err
	}
	o.printer = p
	return nil
}

// Run runs the command configured by Options.
func (o *Options) Run(ctx context.Context) error {
	log.Info().EmbedObject(util.LoggedPoolConfig{Config: o.PoolConfig}).Msg("connecting to postgres")

	pool, err := pgxpool.ConnectConfig(ctx, o.PoolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info().Msg("syncing schema")
	schema, err := pgschema.SyncSchema(ctx, pool, o.PostgresSchema, o.Tables...)
	if err != nil {
		return err
	}
	return o.Print(schema)
}

// Print writes the generated config (or zed schema) for schema
func (o *Options) Print(schema *pgschema.Schema) error {
	if o.ZedSchema {
		_, err := o.Out.Write([]byte(schema.ToZedSchema()))
		return err
	}
	return o.printer(schema.ToActionMap())
}
