package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// poolParamsSize is the byte size of the Params uniform (16-byte aligned).
const poolParamsSize = 48

// poolParams packs the Params uniform for an input/output shape pair.
func poolParams(cfg pooling.Config, input, output tensor.Shape) ([]byte, error) {
	if len(input) != 4 || len(output) != 4 {
		return nil, fmt.Errorf("webgpu: expected 4D tensors, got %s -> %s", input, output)
	}
	N, C, H, W := input.Lengths4()
	_, _, HOut, WOut := output.Lengths4()
	k, s, p := cfg.Window(), cfg.Stride(), cfg.Pad()

	fields := []int{N * C, H, W, HOut, WOut, k.H, k.W, s.H, s.W, p.H, p.W, 0}
	buf := make([]byte, poolParamsSize)
	for i, v := range fields {
		//nolint:gosec // G115: dimensions validated positive by pooling.Prepare
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf, nil
}

// workgroups returns ceil(n / workgroupSize).
func workgroups(n int) uint32 {
	//nolint:gosec // G115: Safe conversion, workgroup count is non-negative
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

// align4 rounds size up to the 4-byte multiple required for storage buffers.
func align4(size uint64) uint64 {
	return (size + 3) &^ 3
}

// forwardShader selects the forward kernel for mode.
func forwardShader(mode pooling.Mode) (name, code string) {
	if mode == pooling.Max {
		return "pool_max_forward", poolMaxForwardShader
	}
	return "pool_average_forward", poolAverageForwardShader
}

// backwardShader selects the backward kernel for mode.
func backwardShader(mode pooling.Mode) (name, code string) {
	if mode == pooling.Max {
		return "pool_max_backward", poolMaxBackwardShader
	}
	return "pool_average_backward", poolAverageBackwardShader
}
