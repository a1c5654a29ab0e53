// Package hookio provides the stdin/stdout plumbing shared by editor hook
// binaries: read one JSON payload, hand it to a handler, acknowledge. A hook
// binary must never fail the editor that invoked it, so payload and handler
// problems are logged and acknowledged rather than surfaced as exit codes.
package hookio

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Ack is the response written back to the editor after every invocation.
type Ack struct {
	Continue bool `json:"continue"`
}

// Handler processes one decoded payload. A returned error is diagnostic
// only; it never changes the acknowledgement.
type Handler[T any] func(ctx context.Context, input *T) error

// Run reads one JSON payload from stdin, decodes it into T, and invokes
// handler. The editor always receives a continue acknowledgement on stdout
// and an exit status of zero.
func Run[T any](hookName string, handler Handler[T]) {
	run(context.Background(), hookName, os.Stdin, os.Stdout, handler)
}

func run[T any](ctx context.Context, hookName string, in io.Reader, out io.Writer, handler Handler[T]) {
	defer writeAck(out)

	raw, err := io.ReadAll(in)
	if err != nil {
		log.Warn().Err(err).Str("hook", hookName).Msg("read hook input")
		return
	}
	if strings.TrimSpace(string(raw)) == "" {
		return
	}

	var input T
	if err := json.Unmarshal(raw, &input); err != nil {
		log.Warn().Err(err).Str("hook", hookName).Msg("decode hook input")
		return
	}

	if err := handler(ctx, &input); err != nil {
		log.Warn().Err(err).Str("hook", hookName).Msg("hook handler failed")
	}
}

// writeAck emits the continue acknowledgement.
func writeAck(out io.Writer) {
	data, _ := json.Marshal(Ack{Continue: true})
	fmt.Fprintln(out, string(data))
}
