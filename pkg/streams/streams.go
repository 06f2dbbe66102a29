package streams

// IO bundles the standard streams handed to cobra commands, so commands can
// be run against buffers in tests.
// Modeled on k8s.io/cli-runtime/pkg/genericclioptions.IOStreams.

import (
	"bytes"
	"io"
	"os"
)

// IO holds the input, output and error streams of a command
type IO struct {
	// In is usually os.Stdin
	In io.Reader
	// Out receives command output (generated configs, route tables)
	Out io.Writer
	// ErrOut receives logs when Out carries data
	ErrOut io.Writer
}

// NewTestIO returns an IO backed by buffers, along with the buffers
func NewTestIO() (IO, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in, out, errOut := &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}
	return IO{In: in, Out: out, ErrOut: errOut}, in, out, errOut
}

// NewStdIO returns an IO for stdin, stdout and stderr
func NewStdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}
