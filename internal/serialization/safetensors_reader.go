package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// File is a decoded SafeTensors file.
type File struct {
	Tensors  map[string]*tensor.RawTensor
	Metadata map[string]string
}

// ReadSafeTensors loads every tensor of the SafeTensors file at path.
func ReadSafeTensors(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for replay
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	f, err := DecodeSafeTensors(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// DecodeSafeTensors parses a SafeTensors image. Offsets, names and the
// stored checksum are validated before any tensor is built.
func DecodeSafeTensors(data []byte) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("failed to read header size: file has %d bytes", len(data))
	}
	headerSize := binary.LittleEndian.Uint64(data)
	if headerSize > MaxHeaderSize || headerSize > uint64(len(data)-8) {
		return nil, fmt.Errorf("%w: %d", ErrHeaderTooLarge, headerSize)
	}
	body := data[8+headerSize:]

	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerSize], &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	f := &File{Tensors: make(map[string]*tensor.RawTensor, len(rawMap))}
	if raw, ok := rawMap[metadataKey]; ok {
		if err := json.Unmarshal(raw, &f.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		delete(rawMap, metadataKey)
	}

	infos := make(map[string]TensorInfo, len(rawMap))
	metas := make([]TensorMeta, 0, len(rawMap))
	for name, raw := range rawMap {
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		var info TensorInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tensor %s: %w", name, err)
		}
		infos[name] = info
		metas = append(metas, TensorMeta{
			Name:   name,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		})
	}
	if err := ValidateTensorOffsets(metas, int64(len(body))); err != nil {
		return nil, err
	}
	if sum, ok := f.Metadata[ChecksumKey]; ok {
		if err := ValidateChecksum(body, sum); err != nil {
			return nil, err
		}
	}

	for name, info := range infos {
		dtype, ok := safeTensorsToDtype(info.DType)
		if !ok {
			return nil, fmt.Errorf("tensor %s: %w: %s", name, ErrUnsupportedDType, info.DType)
		}
		raw, err := tensor.NewRaw(tensor.Shape(info.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		chunk := body[info.DataOffsets[0]:info.DataOffsets[1]]
		if len(chunk) != raw.ByteSize() {
			return nil, &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("%d bytes for shape %s of %s", len(chunk), raw.Shape(), dtype),
			}
		}
		copy(raw.Data(), chunk)
		f.Tensors[name] = raw
	}
	return f, nil
}
