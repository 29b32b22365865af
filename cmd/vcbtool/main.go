// Command vcbtool inspects, validates, converts, replays and serves
// recorded vcb command buffers.
//
// Usage:
//
//	vcbtool inspect FILE
//	vcbtool validate FILE
//	vcbtool convert -to json|binary IN OUT
//	vcbtool replay [-backend NAME] [-frames N] FILE
//	vcbtool serve [-addr ADDR] [-interval D] FILE...
//
// Files may be VCB1 binary frames or JSON documents. Settings come from
// VCB_* environment variables; flags override them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/internal/config"
	"github.com/vib3/vcb/internal/telemetry"
)

const usage = `usage: vcbtool <command> [flags] [args]

commands:
  inspect FILE                 print header, counts and stats
  validate FILE                validate every command, exit 1 on errors
  convert -to FORMAT IN OUT    rewrite as json or binary
  replay FILE                  execute on a backend and report resources
  serve FILE...                broadcast files to websocket clients
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// command is one vcbtool subcommand.
type command func(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"inspect":  inspect,
	"validate": validate,
	"convert":  convert,
	"replay":   replay,
	"serve":    serve,
}

// errFailed marks a command that reported its own failure and only needs
// a non-zero exit.
var errFailed = errors.New("failed")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "vcbtool: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "vcbtool: %v\n", err)
		return 1
	}
	vcb.SetLogger(cfg.NewLogger(stderr))
	defer vcb.SetLogger(nil)

	shutdown, err := telemetry.Setup(ctx, "vcbtool", cfg.OTelEndpoint)
	if err != nil {
		fmt.Fprintf(stderr, "vcbtool: telemetry: %v\n", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			vcb.Logger().Warn("vcbtool: telemetry shutdown", "err", err)
		}
	}()

	if err := cmd(ctx, cfg, args[1:], stdout, stderr); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(stderr, "vcbtool %s: %v\n", args[0], err)
		}
		return 1
	}
	return 0
}
