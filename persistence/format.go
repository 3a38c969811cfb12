package persistence

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies iswrec files.
	Magic = "ISW1"
	// Version is the current format version.
	Version uint16 = 1
)

// Kind is the content type of a file.
type Kind uint8

const (
	// KindDataset marks a cross-spectrum dataset.
	KindDataset Kind = 1
	// KindCoefficients marks a coefficient store.
	KindCoefficients Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindDataset:
		return "dataset"
	case KindCoefficients:
		return "coefficients"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	ErrInvalidKind    = errors.New("persistence: unexpected content kind")
	ErrUnknownCodec   = errors.New("persistence: unknown codec")
	ErrCorrupt        = errors.New("persistence: corrupt file")
)

// Header is the decoded fixed part of a file.
type Header struct {
	Version     uint16
	Kind        Kind
	Compression Compression
	Codec       string
}
