package persistence

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload block compression.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

// DefaultBlockSize is the uncompressed size of a payload block.
const DefaultBlockSize = 1 << 20

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [uncompressed u32][compressed u32][data]. A compressed size
// of 0 marks a block stored as is.
const blockHeaderSize = 8

// appendBlocks splits payload into blocks and appends them to dst.
func appendBlocks(dst, payload []byte, c Compression, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	for len(payload) > 0 {
		n := min(blockSize, len(payload))
		var err error
		dst, err = appendBlock(dst, payload[:n], c)
		if err != nil {
			return nil, err
		}
		payload = payload[n:]
	}
	return dst, nil
}

func appendBlock(dst, data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))

	// Blocks that do not shrink by at least 10% are stored raw.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}

	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// readBlocks decodes a block stream holding exactly size uncompressed bytes.
func readBlocks(data []byte, c Compression, size uint64) ([]byte, error) {
	out := make([]byte, 0, size)
	for len(data) > 0 {
		if len(data) < blockHeaderSize {
			return nil, fmt.Errorf("%w: truncated block header", ErrCorrupt)
		}
		raw := int(binary.LittleEndian.Uint32(data[0:]))
		packed := int(binary.LittleEndian.Uint32(data[4:]))
		data = data[blockHeaderSize:]

		if packed == 0 {
			if len(data) < raw {
				return nil, fmt.Errorf("%w: block extends beyond payload", ErrCorrupt)
			}
			out = append(out, data[:raw]...)
			data = data[raw:]
			continue
		}

		if len(data) < packed {
			return nil, fmt.Errorf("%w: compressed block extends beyond payload", ErrCorrupt)
		}
		block, err := decompressBlock(data[:packed], raw, c)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		data = data[packed:]
	}
	if uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(out), size)
	}
	return out, nil
}

func decompressBlock(data []byte, raw int, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		out := make([]byte, raw)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(data, make([]byte, 0, raw))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(out) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed block in file with compression %s", ErrCorrupt, c)
	}
}
