package main

import (
	"github.com/jzelinskie/cobrautil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optics-team/prism-action-mapper/pkg/cmd/config"
	"github.com/optics-team/prism-action-mapper/pkg/cmd/register"
	"github.com/optics-team/prism-action-mapper/pkg/signals"
	"github.com/optics-team/prism-action-mapper/pkg/streams"
)

func main() {
	s := streams.NewStdIO()
	ctx := signals.Context()
	rootCmd := &cobra.Command{
		Use:               "prism-action-mapper",
		Short:             "Register CRUD actions and security backends for postgres tables and views",
		PersistentPreRunE: cobrautil.SyncViperPreRunE("prism-action-mapper"),
		SilenceUsage:      true,
	}

	rootCmd.AddCommand(register.NewRegisterCmd(ctx, s))
	rootCmd.AddCommand(config.NewConfigCmd(ctx, s))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run")
	}
}
