package options

import (
	"fmt"

	"github.com/authzed/authzed-go/v1"
	"github.com/authzed/grpcutil"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/optics-team/prism-action-mapper/pkg/write"
)

// SpiceDBOptions holds options for the SpiceDB instance security backends
// are written to
type SpiceDBOptions struct {
	SpiceDBEndpoint string
	SpiceDBToken    string
	SpiceDBInsecure bool

	Client       *authzed.Client
	SchemaWriter write.AppendSchemaWriter
}

// Complete dials SpiceDB unless a client is already configured. In dry-run
// mode a missing endpoint is allowed and the schema is only logged.
func (o *SpiceDBOptions) Complete(dryRun bool) (err error) {
	defer func() {
		if err == nil && o.SchemaWriter == nil {
			o.SchemaWriter = write.NewSchemaAppendWriter(o.Client, dryRun)
		}
	}()
	if o.Client != nil {
		log.Debug().Msg("spicedb client already configured, skipping client option validation")
		return nil
	}
	if o.SpiceDBEndpoint == "" {
		if dryRun {
			return nil
		}
		return fmt.Errorf("must provide spicedb uri")
	}
	o.Client, err = authzed.NewClient(o.SpiceDBEndpoint, o.dialOptions()...)
	return
}

func (o *SpiceDBOptions) dialOptions() []grpc.DialOption {
	grpcOpts := make([]grpc.DialOption, 0)
	if o.SpiceDBInsecure {
		grpcOpts = append(grpcOpts, grpc.WithInsecure())
	}
	if o.SpiceDBToken != "" && o.SpiceDBInsecure {
		grpcOpts = append(grpcOpts, grpcutil.WithInsecureBearerToken(o.SpiceDBToken))
	}
	if o.SpiceDBToken != "" && !o.SpiceDBInsecure {
		grpcOpts = append(grpcOpts, grpcutil.WithBearerToken(o.SpiceDBToken))
	}
	return grpcOpts
}
