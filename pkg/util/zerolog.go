package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jzelinskie/cobrautil"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ZeroLogPreRunEFunc returns a cobra PreRunE function that wires zerolog into
// the given IO streams
func ZeroLogPreRunEFunc(out io.Writer) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if cobrautil.IsBuiltinCommand(cmd) {
			return nil // No-op for builtins
		}
		return ConfigureZeroLog(out, cobrautil.MustGetString(cmd, "log-format"), cobrautil.MustGetString(cmd, "log-level"))
	}
}

// ConfigureZeroLog points the global logger at out. Format "human" (or
// "auto" on a terminal) writes console output; anything else writes JSON.
func ConfigureZeroLog(out io.Writer, format, levelString string) error {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd())
	}
	if format == "human" || (format == "auto" && tty) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	} else {
		log.Logger = log.Output(out)
	}

	levelString = strings.ToLower(levelString)
	level, err := zerolog.ParseLevel(levelString)
	if err != nil {
		return fmt.Errorf("unknown log level: %s", levelString)
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Str("new level", levelString).Msg("set log level")
	return nil
}

// LoggedPoolConfig wraps a pgxpool.Config to make it satisfy the
// zerolog.LogObjectMarshaler interface without logging credentials
type LoggedPoolConfig struct {
	*pgxpool.Config
}

// MarshalZerologObject satisfies the zerolog.LogObjectMarshaler interface
func (l LoggedPoolConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Str("host", l.ConnConfig.Host)
	e.Uint16("port", l.ConnConfig.Port)
	e.Str("user", l.ConnConfig.User)
	e.Str("database", l.ConnConfig.Database)
	e.Int32("max_conns", l.MaxConns)
}
