package poolcheck

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/serialization"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

// Metadata keys of a case dump.
const (
	metaMode   = "mode"
	metaWindow = "window"
	metaStride = "stride"
	metaPad    = "pad"
	metaPass   = "pass"
	metaRunID  = "run_id"
	metaCase   = "case"
)

// dumpCase writes the tensors of a failed case to Config.DumpDir and
// returns the file path.
func (c *Checker) dumpCase(report *verify.Report, pass string, cfg pooling.Config, tensors map[string]*tensor.RawTensor) (string, error) {
	seq := c.dumps.Add(1)
	path := filepath.Join(c.cfg.DumpDir, fmt.Sprintf("%s-%04d-%s.safetensors", report.RunID, seq, pass))

	meta := encodeConfig(cfg)
	meta[metaPass] = pass
	meta[metaRunID] = report.RunID.String()
	meta[metaCase] = strconv.FormatInt(seq, 10)

	if err := serialization.WriteSafeTensors(path, tensors, meta); err != nil {
		return "", err
	}
	return path, nil
}

func forwardTensors(input *tensor.RawTensor, fo verify.Outcome[ForwardResult]) map[string]*tensor.RawTensor {
	m := map[string]*tensor.RawTensor{
		"input":              input,
		"reference_output":   fo.Reference.Output,
		"accelerated_output": fo.Accelerated.Output,
	}
	if fo.Reference.Indices != nil {
		m["reference_indices"] = indexTensor(fo.Reference.Output.Shape(), fo.Reference.Indices)
	}
	if fo.Accelerated.Indices != nil {
		m["accelerated_indices"] = indexTensor(fo.Accelerated.Output.Shape(), fo.Accelerated.Indices)
	}
	return m
}

func backwardTensors(op *BackwardOp, bo verify.Outcome[*tensor.RawTensor]) map[string]*tensor.RawTensor {
	m := forwardTensors(op.Input, op.Forward)
	m["grad_output"] = op.GradOutput
	m["reference_grad_input"] = bo.Reference
	m["accelerated_grad_input"] = bo.Accelerated
	return m
}

// indexTensor stores an IndexMap as a uint16 tensor shaped like the output.
func indexTensor(shape tensor.Shape, idx pooling.IndexMap) *tensor.RawTensor {
	t := tensor.MustNewRaw(shape, tensor.Uint16, tensor.CPU)
	copy(t.Data(), device.EncodeIndices(idx, 2))
	return t
}

func encodeConfig(cfg pooling.Config) map[string]string {
	size := func(s pooling.Size2) string { return fmt.Sprintf("%dx%d", s.H, s.W) }
	return map[string]string{
		metaMode:   cfg.Mode().String(),
		metaWindow: size(cfg.Window()),
		metaStride: size(cfg.Stride()),
		metaPad:    size(cfg.Pad()),
	}
}

func decodeConfig(meta map[string]string) (pooling.Config, error) {
	var mode pooling.Mode
	switch meta[metaMode] {
	case pooling.Max.String():
		mode = pooling.Max
	case pooling.Average.String():
		mode = pooling.Average
	default:
		return pooling.Config{}, fmt.Errorf("poolcheck: unknown mode %q", meta[metaMode])
	}

	var sizes [3]pooling.Size2
	for i, key := range []string{metaWindow, metaStride, metaPad} {
		if _, err := fmt.Sscanf(meta[key], "%dx%d", &sizes[i].H, &sizes[i].W); err != nil {
			return pooling.Config{}, fmt.Errorf("poolcheck: bad %s %q: %w", key, meta[key], err)
		}
	}

	cfg := pooling.NewConfig(mode, sizes[0], sizes[1], sizes[2])
	if err := cfg.Validate(); err != nil {
		return pooling.Config{}, err
	}
	return cfg, nil
}

// LoadCase reads a case dump and returns its input and pooling config.
func LoadCase(path string) (*tensor.RawTensor, pooling.Config, error) {
	f, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return nil, pooling.Config{}, err
	}
	input, ok := f.Tensors["input"]
	if !ok {
		return nil, pooling.Config{}, fmt.Errorf("poolcheck: %s has no input tensor", path)
	}
	cfg, err := decodeConfig(f.Metadata)
	if err != nil {
		return nil, pooling.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return input, cfg, nil
}

// Replay re-runs the case stored at path.
func (c *Checker) Replay(ctx context.Context, path string) (*verify.Report, error) {
	input, cfg, err := LoadCase(path)
	if err != nil {
		return nil, err
	}
	report := verify.NewReport()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	log := c.logger.With("run_id", report.RunID, "input", input.String(), "replay", path)
	return report, c.checkCase(input, cfg, report, log)
}
