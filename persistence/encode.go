package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/codec"
	"github.com/hupe1980/iswrec/glm"
)

type options struct {
	codec       codec.Codec
	compression Compression
	blockSize   int
}

// Option configures encoding.
type Option func(*options)

// WithCodec sets the metadata codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the payload compression. Defaults to none.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBlockSize sets the uncompressed payload block size. Values <= 0 keep
// DefaultBlockSize.
func WithBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:     codec.Default,
		blockSize: DefaultBlockSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type datasetMeta struct {
	Tags []string `json:"tags"`
	NEll int      `json:"nell"`
}

type storeMeta struct {
	Lmax         int         `json:"lmax"`
	Realizations []int       `json:"realizations"`
	Maps         []glm.MapID `json:"maps"`
	RunTag       string      `json:"run_tag,omitempty"`
	FileTags     []string    `json:"file_tags,omitempty"`
}

// EncodeDataset writes ds to w.
func EncodeDataset(w io.Writer, ds *cldata.Dataset, optFns ...Option) error {
	flat := ds.Flat()
	payload := make([]byte, 8*len(flat))
	for i, v := range flat {
		binary.LittleEndian.PutUint64(payload[8*i:], math.Float64bits(v))
	}
	meta := datasetMeta{Tags: ds.Tags(), NEll: ds.NEll()}
	return encode(w, KindDataset, meta, payload, applyOptions(optFns))
}

// DecodeDataset parses a dataset file.
func DecodeDataset(data []byte) (*cldata.Dataset, error) {
	var meta datasetMeta
	payload, err := decode(data, KindDataset, &meta)
	if err != nil {
		return nil, err
	}
	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("%w: dataset payload of %d bytes", ErrCorrupt, len(payload))
	}
	flat := make([]float64, len(payload)/8)
	for i := range flat {
		flat[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
	}
	return cldata.FromFlat(meta.Tags, meta.NEll, flat)
}

// EncodeStore writes st to w.
func EncodeStore(w io.Writer, st *glm.Store, optFns ...Option) error {
	data := st.Data()
	payload := make([]byte, 16*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(payload[16*i:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(payload[16*i+8:], math.Float64bits(imag(v)))
	}
	meta := storeMeta{
		Lmax:         st.Lmax,
		Realizations: st.Realizations,
		Maps:         st.Maps,
		RunTag:       st.RunTag,
		FileTags:     st.FileTags,
	}
	return encode(w, KindCoefficients, meta, payload, applyOptions(optFns))
}

// DecodeStore parses a coefficient store file.
func DecodeStore(data []byte) (*glm.Store, error) {
	var meta storeMeta
	payload, err := decode(data, KindCoefficients, &meta)
	if err != nil {
		return nil, err
	}
	if len(payload)%16 != 0 {
		return nil, fmt.Errorf("%w: coefficient payload of %d bytes", ErrCorrupt, len(payload))
	}
	coeffs := make([]complex128, len(payload)/16)
	for i := range coeffs {
		re := math.Float64frombits(binary.LittleEndian.Uint64(payload[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(payload[16*i+8:]))
		coeffs[i] = complex(re, im)
	}
	st, err := glm.FromData(meta.Lmax, meta.Realizations, meta.Maps, coeffs)
	if err != nil {
		return nil, err
	}
	st.RunTag = meta.RunTag
	st.FileTags = meta.FileTags
	return st, nil
}

func encode(w io.Writer, kind Kind, meta any, payload []byte, o options) error {
	metaBytes, err := o.codec.Marshal(meta)
	if err != nil {
		return fmt.Errorf("persistence: encode metadata: %w", err)
	}
	name := o.codec.Name()
	if len(name) > math.MaxUint8 {
		return fmt.Errorf("persistence: codec name %q too long", name)
	}

	buf := make([]byte, 0, len(Magic)+5+len(name)+4+len(metaBytes)+8+len(payload)+blockHeaderSize)
	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint16(buf, Version)
	buf = append(buf, byte(kind), byte(o.compression), byte(len(name)))
	buf = append(buf, name...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(metaBytes)))
	buf = append(buf, metaBytes...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(payload)))
	if buf, err = appendBlocks(buf, payload, o.compression, o.blockSize); err != nil {
		return fmt.Errorf("persistence: compress payload: %w", err)
	}

	cw := NewChecksumWriter(w)
	if _, err := cw.Write(buf); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// ReadHeader parses the fixed header of a file without verifying it.
func ReadHeader(data []byte) (Header, error) {
	h, _, err := readHeader(bytes.NewReader(data))
	return h, err
}

func readHeader(r io.Reader) (Header, int, error) {
	var fixed [len(Magic) + 5]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, 0, ErrInvalidMagic
		}
		return Header{}, 0, err
	}
	if string(fixed[:len(Magic)]) != Magic {
		return Header{}, 0, ErrInvalidMagic
	}

	h := Header{
		Version:     binary.LittleEndian.Uint16(fixed[4:]),
		Kind:        Kind(fixed[6]),
		Compression: Compression(fixed[7]),
	}
	if h.Version != Version {
		return Header{}, 0, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}

	name := make([]byte, fixed[8])
	if _, err := io.ReadFull(r, name); err != nil {
		return Header{}, 0, fmt.Errorf("%w: codec name: %v", ErrCorrupt, err)
	}
	h.Codec = string(name)
	return h, len(fixed) + len(name), nil
}

func decode(data []byte, want Kind, meta any) ([]byte, error) {
	if len(data) < len(Magic) {
		return nil, ErrInvalidMagic
	}
	body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])

	cr := NewChecksumReader(bytes.NewReader(body))
	h, _, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if h.Kind != want {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrInvalidKind, h.Kind, want)
	}

	var metaLen uint32
	if err := binary.Read(cr, binary.LittleEndian, &metaLen); err != nil {
		return nil, fmt.Errorf("%w: metadata length: %v", ErrCorrupt, err)
	}
	if int64(metaLen) > int64(len(body)) {
		return nil, fmt.Errorf("%w: metadata length %d", ErrCorrupt, metaLen)
	}
	metaBytes := make([]byte, metaLen)
	if _, err := io.ReadFull(cr, metaBytes); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}

	var payloadLen uint64
	if err := binary.Read(cr, binary.LittleEndian, &payloadLen); err != nil {
		return nil, fmt.Errorf("%w: payload length: %v", ErrCorrupt, err)
	}
	blocks, err := io.ReadAll(cr)
	if err != nil {
		return nil, err
	}
	if err := cr.Verify(sum); err != nil {
		return nil, err
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}
	if err := c.Unmarshal(metaBytes, meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}

	return readBlocks(blocks, h.Compression, payloadLen)
}
