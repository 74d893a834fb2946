// File: cmd/parbench/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// parbench compares the static parallel-for of the thread pool with an
// errgroup loop using the same static chunk assignment, for 1..max threads,
// and prints per-thread start/stop times.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/google/uuid"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/momentics/hioload-par/api"
	"github.com/momentics/hioload-par/facade"
	"github.com/momentics/hioload-par/internal/timeit"
)

type options struct {
	n          int
	maxThreads int
	chunk      int
	configPath string
	pin        bool
	topology   bool
	logLevel   string
	set        map[string]bool // flags given on the command line
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("parbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.IntVar(&o.n, "n", 1_000_000, "loop length")
	fs.IntVar(&o.maxThreads, "max-threads", 8, "run with 1..max-threads threads")
	fs.IntVar(&o.chunk, "chunk", 4096, "chunk size")
	fs.StringVar(&o.configPath, "config", "", "config file (YAML/JSON/TOML)")
	fs.BoolVar(&o.pin, "pin", false, "pin workers to hardware threads")
	fs.BoolVar(&o.topology, "topology", false, "print the discovered topology and exit")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: parbench [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if o.n <= 0 || o.maxThreads <= 0 || o.chunk <= 0 {
		return nil, fmt.Errorf("parbench: -n, -max-threads and -chunk must be positive: %w", api.ErrInvalidArgument)
	}
	return o, nil
}

// facadeConfig merges the config file (if any) with command-line flags;
// flags given explicitly win.
func facadeConfig(o *options, log zerolog.Logger) (*facade.Config, error) {
	cfg := facade.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = facade.FromFile(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.set["pin"] || o.configPath == "" {
		cfg.Pin = o.pin
	}
	if o.set["log-level"] || o.configPath == "" {
		cfg.LogLevel = o.logLevel
	}
	if o.set["chunk"] || o.configPath == "" {
		cfg.ChunkSize = o.chunk
	}
	if cfg.Workers < o.maxThreads {
		cfg.Workers = o.maxThreads
	}
	cfg.Logger = &log
	return cfg, nil
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parbench: log level %q: %w", level, api.ErrInvalidArgument)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	log, err := newLogger(o.logLevel, stderr)
	if err != nil {
		return err
	}

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		log.Debug().Msgf(format, a...)
	}))
	defer undo()
	if err != nil {
		log.Warn().Err(err).Msg("could not align GOMAXPROCS with the CPU quota")
	}
	limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithProvider(memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)),
	)
	if err != nil {
		log.Warn().Err(err).Msg("could not derive GOMEMLIMIT")
	} else {
		log.Debug().Int64("bytes", limit).Msg("GOMEMLIMIT set")
	}

	cfg, err := facadeConfig(o, log)
	if err != nil {
		return err
	}
	p, err := facade.New(cfg)
	if err != nil {
		return err
	}
	defer p.Shutdown()

	printHeader(stdout, p)
	if o.topology {
		printTopology(stdout, p.Topology())
		return nil
	}

	rep := timeit.NewReporter(log)
	for nthreads := 1; nthreads <= o.maxThreads; nthreads++ {
		cmp, err := compare(ctx, p, rep, o.n, cfg.ChunkSize, nthreads)
		if err != nil {
			return err
		}
		cmp.print(stdout)
	}
	return nil
}

func printHeader(w io.Writer, p *facade.Parallel) {
	topo := p.Topology()
	fmt.Fprintf(w, "run %s\n", uuid.New())
	fmt.Fprintf(w, "%s/%s, GOMAXPROCS %d, %.1f GiB RAM\n",
		runtime.GOOS, runtime.GOARCH, runtime.GOMAXPROCS(0), float64(memory.TotalMemory())/(1<<30))
	accurate := ""
	if !topo.IsAccurate() {
		accurate = " (degraded)"
	}
	fmt.Fprintf(w, "%d cores, %d hardware threads%s, pool of %d workers, %d pinned\n\n",
		topo.NumPhysicalCores(), topo.NumHWThreads(), accurate, p.PoolSize(), p.Stats().Pinned)
}

func printTopology(w io.Writer, topo api.Topology) {
	if s, ok := topo.(fmt.Stringer); ok {
		fmt.Fprintln(w, s.String())
		return
	}
	for c := 0; c < topo.NumPhysicalCores(); c++ {
		fmt.Fprintf(w, "core %d: %d hardware threads\n", c, topo.NumHWThreadsForCore(c))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
