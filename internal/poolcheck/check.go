package poolcheck

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

// Checker runs the sweep against a pair of executors.
type Checker struct {
	ref, acc pooling.Executor
	cfg      Config
	logger   *slog.Logger
	dumps    atomic.Int64
}

// New returns a Checker verifying acc against ref.
func New(ref, acc pooling.Executor, cfg Config) *Checker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.Sweep == nil {
		cfg.Sweep = DefaultSweep()
	}
	return &Checker{ref: ref, acc: acc, cfg: cfg, logger: logger}
}

// Check verifies every sweep row on input and records the outcomes in
// report. Inputs whose plane exceeds the index range are skipped. The
// returned error is fatal: an executor failure or a violated precondition.
func (c *Checker) Check(ctx context.Context, input *tensor.RawTensor, report *verify.Report) error {
	shape := input.Shape()
	if len(shape) != 4 {
		return fmt.Errorf("poolcheck: expected 4D input, got %s", shape)
	}
	log := c.logger.With("run_id", report.RunID, "input", input.String())

	_, _, h, w := shape.Lengths4()
	if h*w > pooling.MaxPlaneSize {
		reason := fmt.Sprintf("plane %dx%d exceeds %d elements", h, w, pooling.MaxPlaneSize)
		report.Skip(input.String(), reason)
		log.Warn("skipping input", "reason", reason)
		return nil
	}

	for _, cfg := range c.cfg.Sweep {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.checkCase(input, cfg, report, log); err != nil {
			return err
		}
	}
	return nil
}

// checkCase verifies one config. A PreconditionError panic becomes the
// returned error; any other panic propagates.
func (c *Checker) checkCase(input *tensor.RawTensor, cfg pooling.Config, report *verify.Report, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := pooling.AsPrecondition(r)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("poolcheck: %s on %s: %w", cfg, input, pe)
		}
	}()

	log = log.With("config", cfg.String())
	log.Debug("checking case")

	fwd := &ForwardOp{Ref: c.ref, Acc: c.acc, Input: input, Config: cfg, Tolerance: c.cfg.Tolerance}
	fo, err := verify.Verify[ForwardResult](fwd)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("forward %s %s", cfg, input)
	if !verify.Record[ForwardResult](report, name, fwd, fo) {
		logMismatches(log, "forward", fo.Mismatches)
		c.dump(report, "forward", cfg, forwardTensors(input, fo), log)
	}

	bwd := &BackwardOp{
		Ref:        c.ref,
		Acc:        c.acc,
		Input:      input,
		GradOutput: SyntheticGradient(fo.Reference.Output),
		Forward:    fo,
		Config:     cfg,
		Tolerance:  c.cfg.Tolerance,
	}
	bo, err := verify.Verify[*tensor.RawTensor](bwd)
	if err != nil {
		return err
	}
	name = fmt.Sprintf("backward %s %s", cfg, input)
	if !verify.Record[*tensor.RawTensor](report, name, bwd, bo) {
		logMismatches(log, "backward", bo.Mismatches)
		c.dump(report, "backward", cfg, backwardTensors(bwd, bo), log)
	}
	return nil
}

// dump saves a failed case when DumpDir is set. Write errors are logged.
func (c *Checker) dump(report *verify.Report, pass string, cfg pooling.Config, tensors map[string]*tensor.RawTensor, log *slog.Logger) {
	if c.cfg.DumpDir == "" {
		return
	}
	path, err := c.dumpCase(report, pass, cfg, tensors)
	if err != nil {
		log.Warn("case dump failed", "pass", pass, "error", err)
		return
	}
	log.Info("case dumped", "pass", pass, "path", path)
}

func logMismatches(log *slog.Logger, pass string, ms []verify.Mismatch) {
	for _, m := range ms {
		log.Warn("mismatch",
			"pass", pass,
			"what", m.What,
			"count", m.Count,
			"total", m.Total,
			"first", m.First,
			"expected", m.Expected,
			"actual", m.Actual,
			"rms", m.RMS,
		)
	}
}

// CheckShapes generates one random input per shape, seeded Seed+i, and
// verifies them with at most Jobs inputs in flight. The report is returned
// even when a fatal error stops the run early.
func (c *Checker) CheckShapes(ctx context.Context, shapes []tensor.Shape) (*verify.Report, error) {
	report := verify.NewReport()
	c.logger.Info("verification started",
		"run_id", report.RunID,
		"reference", c.ref.Name(),
		"accelerated", c.acc.Name(),
		"inputs", len(shapes),
		"configs", len(c.cfg.Sweep),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Jobs)
	for i, shape := range shapes {
		g.Go(func() error {
			input, err := tensor.RandomOf(shape, c.cfg.DType, c.cfg.Seed+uint64(i), c.cfg.Scale)
			if err != nil {
				return fmt.Errorf("poolcheck: input %d: %w", i, err)
			}
			return c.Check(ctx, input, report)
		})
	}
	err := g.Wait()

	c.logger.Info("verification finished", "report", report)
	return report, err
}
