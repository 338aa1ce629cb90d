package utils

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies how a fetched document is encoded
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXz
)

// Magic bytes for compression detection
var (
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
)

// String returns the string representation of Compression
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionXz:
		return "xz"
	default:
		return "none"
	}
}

// DetectCompression determines the encoding of data from its leading bytes
func DetectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXz
	default:
		return CompressionNone
	}
}

// Decompress returns data decoded according to its detected compression.
// Uncompressed input is returned as is.
func Decompress(data []byte) ([]byte, error) {
	switch DetectCompression(data) {
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionXz:
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return io.ReadAll(r)
	default:
		return data, nil
	}
}
