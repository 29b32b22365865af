package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vib3/vcb/cmdbuf"
	"github.com/vib3/vcb/executor"
	"github.com/vib3/vcb/internal/config"
)

func inspect(_ context.Context, _ config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("need exactly one FILE")
	}
	path := fs.Arg(0)
	buf, format, frame, err := loadBuffer(path)
	if err != nil {
		return err
	}
	info, err := cmdbuf.Peek(frame)
	if err != nil {
		return err
	}
	stats := buf.Stats()

	fmt.Fprintf(stdout, "file:      %s (%s, %s frame)\n", path, format, humanize.IBytes(uint64(len(frame))))
	fmt.Fprintf(stdout, "header:    magic 0x%08X, version %d, payload %d bytes\n",
		info.Header.Magic, info.Header.Version, info.Header.Length)
	fmt.Fprintf(stdout, "sealed:    %t\n", info.Sealed)
	fmt.Fprintf(stdout, "commands:  %d\n", info.Commands)
	fmt.Fprintf(stdout, "draws:     %d (%s triangles)\n", stats.DrawCalls, humanize.Comma(int64(stats.Triangles)))
	fmt.Fprintf(stdout, "state:     %d changes, %d uniform updates\n", stats.StateChanges, stats.UniformUpdates)

	var types []string
	for _, t := range slices.Sorted(maps.Keys(info.Types)) {
		types = append(types, fmt.Sprintf("%s=%d", t, info.Types[t]))
	}
	fmt.Fprintf(stdout, "types:     %s\n", strings.Join(types, " "))
	return nil
}

func validate(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	policy := fs.String("policy", cfg.ErrorPolicy, "error policy: continue or abort")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("need exactly one FILE")
	}
	p, err := executor.ParseErrorPolicy(*policy)
	if err != nil {
		return err
	}
	buf, _, _, err := loadBuffer(fs.Arg(0))
	if err != nil {
		return err
	}

	opts := append(cfg.ExecutorOptions(), executor.WithErrorPolicy(p))
	res, err := executor.NewValidator(opts...).Execute(ctx, buf)
	if err != nil {
		return err
	}
	printResult(stdout, res)
	if res.Errors > 0 {
		return errFailed
	}
	return nil
}

func convert(_ context.Context, _ config.Config, args []string, _, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	to := fs.String("to", formatBinary, "output format: json or binary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("need IN and OUT")
	}
	buf, _, _, err := loadBuffer(fs.Arg(0))
	if err != nil {
		return err
	}
	return saveBuffer(fs.Arg(1), *to, buf)
}

func printResult(w io.Writer, res executor.Result) {
	fmt.Fprintf(w, "executed:  %d\n", res.CommandsExecuted)
	fmt.Fprintf(w, "errors:    %d\n", res.Errors)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  #%d %s: %v\n", f.Index, f.Type, f.Err)
	}
	if res.Aborted {
		fmt.Fprintf(w, "aborted at command %d\n", res.AbortedAt)
	}
}
