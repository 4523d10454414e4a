// Compressed save containers.
//
// Some games wrap the save body in a general-purpose compression frame.
// When Config.Containers is set, Load inspects the first four bytes: a
// zstd or LZ4 frame magic causes the body to be decompressed, and Persist
// writes it back wrapped with the same codec. Offsets in descriptors always
// refer to the decompressed body. With Containers unset (the default) every
// input is loaded byte-for-byte, including compressed ones.
//
// The recompressed file is not byte-identical to the one the game wrote;
// only its decompressed content is preserved.
package savedit

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Container identifies how the save body is wrapped on disk.
type Container int

const (
	ContainerRaw Container = iota
	ContainerZstd
	ContainerLZ4
)

func (c Container) String() string {
	switch c {
	case ContainerZstd:
		return "zstd"
	case ContainerLZ4:
		return "lz4"
	}
	return "raw"
}

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// Shared encoder/decoder; both are safe for concurrent use and expensive to
// construct.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// detectContainer reports the container a file starts with.
func detectContainer(data []byte) Container {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return ContainerZstd
	case bytes.HasPrefix(data, lz4Magic):
		return ContainerLZ4
	}
	return ContainerRaw
}

// unwrap returns the body inside a container frame.
func unwrap(data []byte, c Container) ([]byte, error) {
	switch c {
	case ContainerZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrMalformedInput, err)
		}
		return out, nil
	case ContainerLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrMalformedInput, err)
		}
		return out, nil
	}
	return data, nil
}

// wrap frames body for writing.
func wrap(body []byte, c Container) ([]byte, error) {
	switch c {
	case ContainerZstd:
		return zstdEncoder.EncodeAll(body, nil), nil
	case ContainerLZ4:
		var out bytes.Buffer
		w := lz4.NewWriter(&out)
		if _, err := w.Write(body); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return out.Bytes(), nil
	}
	return body, nil
}
