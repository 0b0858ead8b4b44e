package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// WriteSafeTensors writes tensors to a SafeTensors file at path.
//
// Tensors are written in alphabetical order by name. The data checksum is
// added to metadata under ChecksumKey.
func WriteSafeTensors(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	data, err := EncodeSafeTensors(tensors, metadata)
	if err != nil {
		return err
	}
	//nolint:gosec // G306: dumps are meant to be shared
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// EncodeSafeTensors renders tensors and metadata as a SafeTensors image.
func EncodeSafeTensors(tensors map[string]*tensor.RawTensor, metadata map[string]string) ([]byte, error) {
	names := slices.Sorted(maps.Keys(tensors))
	header := make(map[string]any, len(names)+1)

	var body bytes.Buffer
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		raw := tensors[name]
		dtype, ok := dtypeToSafeTensors(raw.DType())
		if !ok {
			return nil, fmt.Errorf("tensor %s: %w: %s", name, ErrUnsupportedDType, raw.DType())
		}
		start := int64(body.Len())
		body.Write(raw.Data())
		header[name] = TensorInfo{
			DType:       dtype,
			Shape:       raw.Shape().Clone(),
			DataOffsets: [2]int64{start, int64(body.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta[ChecksumKey] = ComputeChecksum(body.Bytes())
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}

	out := make([]byte, 8, 8+len(headerJSON)+body.Len())
	binary.LittleEndian.PutUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	return append(out, body.Bytes()...), nil
}
