package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/vib3/vcb/cmdbuf"
	"github.com/vib3/vcb/executor"
	"github.com/vib3/vcb/executor/backends/halgpu"
	"github.com/vib3/vcb/internal/config"
	"github.com/vib3/vcb/registry"
)

func replay(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		name   = fs.String("backend", cfg.Backend, "executor backend")
		frames = fs.Int("frames", 1, "number of times to execute the buffer")
		width  = fs.Uint("width", halgpu.DefaultWidth, "headless target width")
		height = fs.Uint("height", halgpu.DefaultHeight, "headless target height")
		diag   = fs.Bool("diag", false, "print registry diagnostics as JSON")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("need exactly one FILE")
	}
	if *frames < 1 {
		return fmt.Errorf("-frames must be >= 1, got %d", *frames)
	}
	buf, _, _, err := loadBuffer(fs.Arg(0))
	if err != nil {
		return err
	}

	reg := registry.New(cfg.RegistryOptions()...)
	var (
		backend  executor.Backend
		headless *halgpu.Backend
	)
	if *name == executor.BackendHALNoop {
		headless, err = halgpu.NewHeadless(uint32(*width), uint32(*height))
		backend = headless
	} else {
		backend, err = executor.NewBackend(*name)
	}
	if err != nil {
		return err
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}
	exec := executor.New(backend, cfg.ExecutorOptions()...)

	var created int
	if headless != nil {
		f, err := halgpu.NewFactory(headless.Device(), headless.Queue(), exec, reg)
		if err != nil {
			return err
		}
		defer f.Destroy()
		if created, err = f.Provision(buf); err != nil {
			return err
		}
	} else {
		created = mapPlaceholders(exec, reg, buf)
	}
	fmt.Fprintf(stdout, "backend:   %s (%d placeholder resources)\n", *name, created)

	var res executor.Result
	for i := range *frames {
		reg.BeginFrame()
		res, err = exec.Execute(ctx, buf)
		if err != nil {
			return err
		}
		delta, _ := reg.EndFrame()
		if *frames > 1 {
			fmt.Fprintf(stdout, "frame %d:   %d executed, %d errors, %+d resources\n",
				i, res.CommandsExecuted, res.Errors, delta.NetResources)
		}
	}
	printResult(stdout, res)
	if headless != nil {
		s := headless.Stats()
		fmt.Fprintf(stdout, "gpu:       %d frames, %d passes, %d draws, %d pipeline switches, %d uniform writes\n",
			s.Frames, s.Passes, s.Draws, s.PipelineSwitches, s.UniformWrites)
	}
	fmt.Fprint(stdout, reg.SummaryString())
	if *diag {
		data, err := reg.ExportDiagnosticsJSON()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\n", data)
	}
	if res.Errors > 0 {
		return errFailed
	}
	return nil
}

// mapPlaceholders maps every ID buf references to itself, so backends
// without a resource factory can still replay a recording.
func mapPlaceholders(exec *executor.Executor, reg *registry.Registry, buf *cmdbuf.Buffer) int {
	n := 0
	add := func(typ, id string, get func(string) (any, bool), set func(string, any)) {
		if id == "" {
			return
		}
		if _, ok := get(id); ok {
			return
		}
		set(id, id)
		reg.Register(typ, typ+":"+id, nil, registry.WithLabel(id))
		n++
	}
	for _, c := range buf.All() {
		switch p := c.Data.(type) {
		case cmdbuf.PipelineCommand:
			add(registry.TypePipeline, p.PipelineID, exec.GetPipeline, exec.RegisterPipeline)
		case cmdbuf.VertexBufferCommand:
			add(registry.TypeBuffer, p.BufferID, exec.GetBuffer, exec.RegisterBuffer)
		case cmdbuf.IndexBufferCommand:
			add(registry.TypeBuffer, p.BufferID, exec.GetBuffer, exec.RegisterBuffer)
		case cmdbuf.TextureCommand:
			add(registry.TypeTexture, p.TextureID, exec.GetTexture, exec.RegisterTexture)
		}
	}
	return n
}
