package rho

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/iswrec/blobstore"
	"gonum.org/v1/gonum/stat"
)

// DataExt is the extension of rho data files.
const DataExt = ".rho.dat"

// DataFileName returns {mapdir}{filebase}.rho.dat.
func DataFileName(mapdir, filebase string) string {
	return mapdir + filebase + DataExt
}

// Data holds rho for a sequence of realizations.
type Data struct {
	// Map1 and Map2 are the compared file bases.
	Map1, Map2   string
	Realizations []int
	Rho          []float64
}

// MeanStd returns the mean and sample standard deviation of Rho.
func (d *Data) MeanStd() (mean, std float64) {
	if len(d.Rho) == 0 {
		return 0, 0
	}
	if len(d.Rho) == 1 {
		return d.Rho[0], 0
	}
	return stat.MeanStdDev(d.Rho, nil)
}

// Marshal renders d as text: comment headers followed by one
// "realization rho" line per realization.
func (d *Data) Marshal() ([]byte, error) {
	if len(d.Realizations) != len(d.Rho) {
		return nil, fmt.Errorf("rho: %d realizations but %d values", len(d.Realizations), len(d.Rho))
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# map1 %s\n", d.Map1)
	fmt.Fprintf(&buf, "# map2 %s\n", d.Map2)
	fmt.Fprintf(&buf, "# realization rho\n")
	for i, r := range d.Realizations {
		fmt.Fprintf(&buf, "%05d %.10e\n", r, d.Rho[i])
	}
	return buf.Bytes(), nil
}

// UnmarshalData parses the output of Data.Marshal.
func UnmarshalData(b []byte) (*Data, error) {
	d := &Data{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "#"); ok {
			key, val, _ := strings.Cut(strings.TrimSpace(rest), " ")
			switch key {
			case "map1":
				d.Map1 = val
			case "map2":
				d.Map2 = val
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("rho: line %d: expected 2 fields, got %d", n, len(fields))
		}
		r, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("rho: line %d: %w", n, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("rho: line %d: %w", n, err)
		}
		d.Realizations = append(d.Realizations, r)
		d.Rho = append(d.Rho, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// WriteData stores d under name.
func WriteData(ctx context.Context, store blobstore.BlobStore, name string, d *Data) error {
	b, err := d.Marshal()
	if err != nil {
		return err
	}
	return store.Put(ctx, name, b)
}

// ReadData loads a rho data file.
func ReadData(ctx context.Context, store blobstore.BlobStore, name string) (*Data, error) {
	b, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return UnmarshalData(b)
}
