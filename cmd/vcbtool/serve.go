package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/internal/config"
	"github.com/vib3/vcb/registry"
	"github.com/vib3/vcb/stream"
)

const typeFrame = "frame"

func serve(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		addr     = fs.String("addr", cfg.ListenAddr, "listen address")
		interval = fs.Duration("interval", time.Second, "delay between frames")
		count    = fs.Int("count", 0, "stop after publishing this many frames (0 = run until interrupted)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("need at least one FILE")
	}
	if *interval <= 0 {
		return fmt.Errorf("-interval must be positive, got %s", *interval)
	}

	reg := registry.New(cfg.RegistryOptions()...)
	frames := make([][]byte, 0, fs.NArg())
	for _, path := range fs.Args() {
		buf, _, _, err := loadBuffer(path)
		if err != nil {
			return err
		}
		frame, err := buf.Seal().ToBinary()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		frames = append(frames, frame)
		reg.Register(typeFrame, path, nil, registry.WithBytes(int64(len(frame))), registry.WithLabel(path))
	}

	hub := stream.NewHub()
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		registry.NewCollector(reg, "vcb"),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vcb", Subsystem: "stream", Name: "clients",
			Help: "Connected websocket clients.",
		}, func() float64 { return float64(hub.Clients()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "vcb", Subsystem: "stream", Name: "frames_published_total",
			Help: "Frames broadcast to clients.",
		}, func() float64 { return float64(hub.Stats().Published) }),
	)
	mux := http.NewServeMux()
	mux.Handle("/vcb", hub)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			vcb.Logger().Warn("vcbtool: http server", "err", err)
		}
	}()
	fmt.Fprintf(stdout, "serving %d frames on ws://%s/vcb (metrics on /metrics)\n", len(frames), ln.Addr())

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	published := 0
loop:
	for *count == 0 || published < *count {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			n, err := hub.PublishFrame(frames[published%len(frames)])
			if err != nil {
				return err
			}
			published++
			vcb.Logger().Debug("vcbtool: published frame", "seq", published, "clients", n)
		}
	}

	_ = hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "published %d frames\n", published)
	return nil
}
