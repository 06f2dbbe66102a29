package options

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresOptions holds options related to postgres
type PostgresOptions struct {
	PostgresURI string
	// PostgresSchema is the namespace whose tables and views are inspected
	PostgresSchema string

	PoolConfig *pgxpool.Config
}

// Complete configures postgres options from a URI if needed
// Set either URI or the config object, but not both.
func (o *PostgresOptions) Complete() error {
	if o.PoolConfig != nil {
		if o.PostgresURI != "" {
			log.Warn().Msg("postgres config already set, ignoring postgres uri")
		}
		log.Debug().Msg("postgres config already set, skipping postgres option validation")
		return nil
	}
	if o.PostgresURI == "" {
		return fmt.Errorf("must provide postgres uri or dsn")
	}

	cfg, err := pgxpool.ParseConfig(o.PostgresURI)
	if err != nil {
		return err
	}
	// schema inspection only needs a couple of connections
	cfg.MaxConns = 2
	o.PoolConfig = cfg
	return nil
}
