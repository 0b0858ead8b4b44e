// Package main provides poolverify, which checks an accelerated pooling
// device against the host reference.
//
// Usage:
//
//	poolverify [-device host|webgpu] [-dtype float32|float64] [-shapes 2x3x17x19,...]
//	poolverify -dump failures/ ...
//	poolverify -replay failures/<case>.safetensors
//
// Exit status is 0 when every case matches, 1 when mismatches were found
// and 2 on a fatal error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"

	"github.com/flair2005/MIOpen/internal/backend/cpu"
	"github.com/flair2005/MIOpen/internal/backend/webgpu"
	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/poolcheck"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

const version = "v0.1.0"

// defaultShapes covers odd extents, single-cell planes, several channels and
// one plane too large for the index map.
const defaultShapes = "1x1x4x4,1x1x1x1,2x3x17x19,1x4x32x32,3x2x9x31,1x1x300x300"

type options struct {
	shapes    string
	random    int
	dtype     string
	device    string
	seed      uint64
	absTol    float64
	relTol    float64
	ulp       int
	jobs      int
	workers   int
	logFormat string
	verbose   bool
	dumpDir   string
	replay    string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	def := poolcheck.DefaultConfig()
	var opts options

	fs := flag.NewFlagSet("poolverify", flag.ContinueOnError)
	fs.StringVar(&opts.shapes, "shapes", defaultShapes, "comma-separated NxCxHxW input shapes")
	fs.IntVar(&opts.random, "random", 0, "number of additional random shapes")
	fs.StringVar(&opts.dtype, "dtype", "float32", "element type: float32 or float64")
	fs.StringVar(&opts.device, "device", "host", "accelerated device: host or webgpu")
	fs.Uint64Var(&opts.seed, "seed", def.Seed, "seed of the first input")
	fs.Float64Var(&opts.absTol, "abs-tol", def.Tolerance.Abs, "absolute tolerance")
	fs.Float64Var(&opts.relTol, "rel-tol", def.Tolerance.Rel, "relative tolerance")
	fs.IntVar(&opts.ulp, "ulp", def.Tolerance.ULP, "accepted distance in units of least precision")
	fs.IntVar(&opts.jobs, "jobs", def.Jobs, "inputs verified concurrently")
	fs.IntVar(&opts.workers, "workers", 0, "host device workers (0 = one per CPU)")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.BoolVar(&opts.verbose, "v", false, "log every case")
	fs.StringVar(&opts.dumpDir, "dump", "", "directory receiving a SafeTensors file per failed case")
	fs.StringVar(&opts.replay, "replay", "", "re-run a dumped case instead of the sweep")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("poolverify %s\n", version)
		return 0
	}

	logger, err := newLogger(opts.logFormat, opts.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := verifyDevice(ctx, opts, logger)
	if err != nil {
		logger.Error("verification aborted", "error", err)
		return 2
	}

	if opts.verbose {
		for _, name := range report.Passed() {
			fmt.Printf("ok   %s\n", name)
		}
	}
	for _, f := range report.Failures() {
		fmt.Fprintf(os.Stderr, "%s\n%s\n\n", f.Case, f.Diagnostic)
	}
	fmt.Println(report.Summary())
	if !report.OK() {
		return 1
	}
	return 0
}

func verifyDevice(ctx context.Context, opts options, logger *slog.Logger) (*verify.Report, error) {
	dtype, err := tensor.ParseDataType(opts.dtype)
	if err != nil {
		return nil, err
	}
	var shapes []tensor.Shape
	if opts.replay == "" {
		shapes, err = parseShapes(opts.shapes)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, randomShapes(opts.random, opts.seed)...)
		if len(shapes) == 0 {
			return nil, errors.New("no input shapes")
		}
	}
	if opts.dumpDir != "" {
		if err := os.MkdirAll(opts.dumpDir, 0o755); err != nil {
			return nil, err
		}
	}

	dev, release, err := openDevice(opts.device, opts.workers)
	if err != nil {
		return nil, err
	}
	defer release()
	if !dev.Supports(dtype) {
		return nil, fmt.Errorf("device %s: %w: %s", dev.Name(), pooling.ErrUnsupportedDType, dtype)
	}
	logger.Info("device opened", "device", dev.Name(), "dtype", dtype.String())

	cfg := poolcheck.DefaultConfig()
	cfg.DType = dtype
	cfg.Seed = opts.seed
	cfg.Tolerance = verify.Tolerance{Abs: opts.absTol, Rel: opts.relTol, ULP: opts.ulp}
	cfg.Jobs = opts.jobs
	cfg.Logger = logger
	cfg.DumpDir = opts.dumpDir

	ref := pooling.NewReference(parallel.DefaultConfig())
	checker := poolcheck.New(ref, device.NewExecutor(dev, logger), cfg)
	if opts.replay != "" {
		return checker.Replay(ctx, opts.replay)
	}
	return checker.CheckShapes(ctx, shapes)
}

func openDevice(name string, workers int) (device.Device, func(), error) {
	switch name {
	case "host", "cpu":
		par := parallel.DefaultConfig()
		if workers > 0 {
			par.NumWorkers = workers
			par.Enabled = workers > 1
		}
		return cpu.New(par), func() {}, nil
	case "webgpu", "gpu":
		dev, err := webgpu.Open()
		if err != nil {
			return nil, nil, err
		}
		release := func() {}
		if r, ok := dev.(interface{ Release() }); ok {
			release = r.Release
		}
		return dev, release, nil
	default:
		return nil, nil, fmt.Errorf("unknown device %q", name)
	}
}

func parseShapes(list string) ([]tensor.Shape, error) {
	var shapes []tensor.Shape
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		shape, err := tensor.ParseShape(field)
		if err != nil {
			return nil, err
		}
		if len(shape) != 4 {
			return nil, fmt.Errorf("shape %q: want NxCxHxW", field)
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// randomShapes draws n shapes with N, C in [1, 4] and H, W in [1, 64].
func randomShapes(n int, seed uint64) []tensor.Shape {
	rng := rand.New(rand.NewPCG(seed, ^seed)) //nolint:gosec // G404: reproducible shapes
	shapes := make([]tensor.Shape, n)
	for i := range shapes {
		shapes[i] = tensor.Shape{1 + rng.IntN(4), 1 + rng.IntN(4), 1 + rng.IntN(64), 1 + rng.IntN(64)}
	}
	return shapes
}

func newLogger(format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
