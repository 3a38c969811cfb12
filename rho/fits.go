package rho

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/astrogo/fitsio"
	"github.com/hupe1980/iswrec/blobstore"
)

// ErrNotTable is returned when a FITS file has no binary table extension.
var ErrNotTable = errors.New("rho: fits file has no table extension")

// FITSReader reads HEALPix maps stored as FITS binary tables. The map is
// taken from the first column of the first extension, whose cells may be
// scalars or fixed-size vectors (the usual 1024-pixel rows).
type FITSReader struct {
	store blobstore.BlobStore
}

// NewFITSReader creates a reader loading files from store.
func NewFITSReader(store blobstore.BlobStore) *FITSReader {
	return &FITSReader{store: store}
}

// ReadMap implements MapReader.
func (r *FITSReader) ReadMap(ctx context.Context, name string) ([]float64, error) {
	data, err := blobstore.ReadAll(ctx, r.store, name)
	if err != nil {
		return nil, err
	}
	m, err := DecodeFITS(data)
	if err != nil {
		return nil, fmt.Errorf("rho: %s: %w", name, err)
	}
	return m, nil
}

// DecodeFITS extracts the pixel values of a HEALPix map from FITS bytes.
func DecodeFITS(data []byte) ([]float64, error) {
	f, err := fitsio.Open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdus := f.HDUs()
	if len(hdus) < 2 {
		return nil, ErrNotTable
	}
	table, ok := hdus[1].(*fitsio.Table)
	if !ok {
		return nil, ErrNotTable
	}
	cols := table.Cols()
	if len(cols) == 0 {
		return nil, ErrNotTable
	}
	first := cols[0].Name

	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pix []float64
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		if pix, err = appendPixels(pix, reflect.ValueOf(row[first])); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pix, nil
}

// appendPixels flattens a scalar, array or slice cell into dst.
func appendPixels(dst []float64, v reflect.Value) ([]float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return append(dst, v.Float()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return append(dst, float64(v.Int())), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return append(dst, float64(v.Uint())), nil
	case reflect.Array, reflect.Slice:
		var err error
		for i := 0; i < v.Len(); i++ {
			if dst, err = appendPixels(dst, v.Index(i)); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil, errors.New("rho: nil pixel cell")
		}
		return appendPixels(dst, v.Elem())
	default:
		return nil, fmt.Errorf("rho: unsupported pixel type %s", v.Kind())
	}
}
